package game

import (
	"fmt"
	"slices"
)

// ProcessAction validates one action against the current phase and applies
// it, returning the ordered event log for everything that happened. The
// timestamp comes in with the action, never from a wall clock, so the same
// input always produces the same output. On error the state is untouched:
// every guard runs before the first mutation, making transitions atomic.
//
// A non-empty idempotency token is consumed exactly once per player: the
// same caller replaying a token is rejected even if the delivery layer
// re-orders or re-delivers the action.
func (s *GameState) ProcessAction(caller Identity, token string, action Action, timestamp uint64) ([]Event, error) {
	if token != "" {
		if i, ok := s.findPlayer(caller); ok && slices.Contains(s.Players[i].UsedTokens, token) {
			return nil, fmt.Errorf("%w: token %q already consumed by %s", ErrDuplicate, token, caller)
		}
	}

	events, err := s.dispatch(caller, action, timestamp)
	if err != nil {
		return nil, err
	}

	if token != "" {
		// The player record may be gone if the action reset the game.
		if i, ok := s.findPlayer(caller); ok {
			s.Players[i].UsedTokens = append(s.Players[i].UsedTokens, token)
		}
	}
	s.LastInteraction = timestamp
	return events, nil
}

// dispatch is the transition table: an explicit match over (phase, action)
// with a single default arm for every unlisted pair.
func (s *GameState) dispatch(caller Identity, action Action, timestamp uint64) ([]Event, error) {
	switch {
	case action.Kind == ActionEndGame:
		return s.endGame(caller, timestamp)

	case s.Phase.Kind == GameOver && action.Kind == ActionInitialize:
		return s.initialize(action, timestamp)

	case s.Phase.Kind == Registration && action.Kind == ActionRegisterPlayer:
		return s.registerPlayer(caller, action)

	case s.Phase.Kind == Registration && action.Kind == ActionStartGame:
		return s.startGame(timestamp)

	case s.Phase.Kind == Betting && action.Kind == ActionPlaceBet:
		return s.placeBet(caller, action.Amount, timestamp)

	case (s.Phase.Kind == Betting || s.Phase.Kind == WheelSpin) && action.Kind == ActionSpinWheel:
		return s.spinWheel(timestamp)

	case (s.Phase.Kind == StartMinigame || s.Phase.Kind == FinalMinigame) && action.Kind == ActionStartMinigame:
		return s.startMinigame(action)

	case s.Phase.Kind == InMinigame && action.Kind == ActionEndMinigame:
		return s.endMinigame(action.Result, timestamp)

	case s.Phase.Kind == RewardsDistribution && action.Kind == ActionDistributeRewards:
		// Settlement is validated by the caller before it gets here.
		s.Phase = phase(GameOver)
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %s in phase %s", ErrPhaseMismatch, action.Kind, s.Phase)
	}
}

// endGame is accepted in any phase, but only for a game that is already
// over, from the backend after a two-minute stall, or from anyone after a
// ten-minute stall. The reset keeps the minigame list and seed so the
// instance can be re-initialized in place.
func (s *GameState) endGame(caller Identity, timestamp uint64) ([]Event, error) {
	isEnded := s.Phase.Kind == GameOver
	isBackend := caller == s.BackendID
	idle := saturatingSub(timestamp, s.LastInteraction)

	if !isEnded && !(isBackend && idle > BackendStallMillis) && idle <= AnyoneStallMillis {
		return nil, fmt.Errorf("%w: only the backend can end the game before the stall timeout", ErrUnauthorized)
	}

	events := []Event{gameEndedEvent("", 0)}
	s.Reset(s.Minigames, s.Dice.Seed)
	return events, nil
}

func (s *GameState) initialize(action Action, timestamp uint64) ([]Event, error) {
	if len(action.Minigames) == 0 {
		return nil, fmt.Errorf("%w: minigame list cannot be empty", ErrConsistency)
	}

	s.Reset(action.Minigames, action.Seed)
	// Stamp the start so the registration window has a reference point.
	s.RoundStarted = timestamp
	s.Phase = phase(Registration)
	return []Event{gameInitializedEvent(action.Seed)}, nil
}

func (s *GameState) registerPlayer(caller Identity, action Action) ([]Event, error) {
	if len(s.Players) >= s.MaxPlayers {
		return nil, fmt.Errorf("%w: %d players registered", ErrCapacity, len(s.Players))
	}
	if _, exists := s.findPlayer(caller); exists {
		return nil, fmt.Errorf("%w: player with identity %s already exists", ErrDuplicate, caller)
	}
	for i := range s.Players {
		if s.Players[i].Name == action.Name {
			return nil, fmt.Errorf("%w: player with name %q already exists", ErrDuplicate, action.Name)
		}
	}
	if action.Deposit == 0 {
		return nil, fmt.Errorf("%w: deposit must be greater than zero", ErrRange)
	}
	if action.Deposit > MaxDeposit {
		return nil, fmt.Errorf("%w: deposit %d exceeds maximum %d", ErrRange, action.Deposit, MaxDeposit)
	}

	s.Players = append(s.Players, Player{
		ID:    caller,
		Name:  action.Name,
		Coins: int64(action.Deposit),
	})
	return []Event{playerRegisteredEvent(action.Name, caller)}, nil
}

func (s *GameState) startGame(timestamp uint64) ([]Event, error) {
	full := len(s.Players) == s.MaxPlayers
	windowDone := saturatingSub(timestamp, s.RoundStarted) >= RegistrationWindowMillis
	if !full && !windowDone {
		return nil, fmt.Errorf("%w: game is not full and the registration window is still open", ErrTiming)
	}

	s.Phase = phase(Betting)
	s.RoundStarted = timestamp
	s.Round = 0
	return []Event{gameStartedEvent(len(s.Players))}, nil
}

func (s *GameState) placeBet(caller Identity, amount uint64, timestamp uint64) ([]Event, error) {
	if saturatingSub(timestamp, s.RoundStarted) > BettingWindowMillis {
		return nil, fmt.Errorf("%w: betting time is over", ErrTiming)
	}
	if _, bet := s.Bets[caller]; bet {
		return nil, fmt.Errorf("%w: player %s has already placed a bet", ErrDuplicate, caller)
	}
	idx, ok := s.findPlayer(caller)
	if !ok {
		return nil, fmt.Errorf("%w: player %s not found", ErrConsistency, caller)
	}
	player := &s.Players[idx]
	if player.Coins == 0 {
		return nil, fmt.Errorf("%w: player %s is out of the game", ErrUnauthorized, caller)
	}
	if s.AllOrNothing {
		if amount != uint64(player.Coins) {
			return nil, fmt.Errorf("%w: all-or-nothing round, the full balance of %d must be wagered", ErrRange, player.Coins)
		}
	} else if uint64(player.Coins) < amount {
		return nil, fmt.Errorf("%w: player %s has %d coins, cannot wager %d", ErrRange, caller, player.Coins, amount)
	}
	// The final-round advance below needs a minigame to hand the bets to.
	if len(s.Minigames) == 0 {
		return nil, fmt.Errorf("%w: no minigame available", ErrInvariant)
	}

	s.Bets[caller] = amount
	events := []Event{betPlacedEvent(caller, amount)}

	// Only players still holding coins owe a bet; once the last of them is
	// in, the round advances without any extra trigger.
	if len(s.Bets) == s.activePlayerCount() {
		if s.Round >= Rounds-1 {
			final := s.Minigames[0]
			events = append(events, minigameReadyEvent(final))
			s.Phase = minigamePhase(FinalMinigame, final)
		} else {
			s.Phase = phase(WheelSpin)
		}
	}
	return events, nil
}

// spinWheel draws the wheel outcome. Arriving from the betting phase means
// the window lapsed with bets outstanding, so the no-shows are penalized
// first; the settlement policy then runs before any outcome is drawn, and
// if it fires the wheel never spins.
func (s *GameState) spinWheel(timestamp uint64) ([]Event, error) {
	fromBetting := s.Phase.Kind == Betting
	if fromBetting && saturatingSub(timestamp, s.RoundStarted) < BettingWindowMillis {
		return nil, fmt.Errorf("%w: the betting window is still open", ErrTiming)
	}
	// Validate everything that could fail before the first mutation: a
	// failure after the penalties or the draw would leave the transition
	// half-applied.
	if len(s.Minigames) == 0 {
		return nil, fmt.Errorf("%w: no minigame available", ErrInvariant)
	}
	for _, id := range s.sortedBettors() {
		if _, ok := s.findPlayer(id); !ok {
			return nil, fmt.Errorf("%w: bettor %s not found", ErrInvariant, id)
		}
	}

	var events []Event
	if fromBetting {
		for i := range s.Players {
			p := &s.Players[i]
			if p.Coins <= 0 {
				continue
			}
			if _, bet := s.Bets[p.ID]; bet {
				continue
			}
			if s.Round == 0 || s.AllOrNothing {
				p.Coins = 0
			} else {
				s.updateCoins(i, -MissedBetPenalty, &events)
			}
		}
	}
	s.AllOrNothing = false

	if s.checkGameOver(&events) {
		return events, nil
	}

	outcome := uint8(s.Dice.Roll() % WheelSegments)
	events = append(events, wheelSpunEvent(s.Round, outcome))
	switch outcome {
	case 0:
		// Nothing happens, on to the next round.
		s.nextRound(timestamp)
	case 1:
		s.redistributeBets(&events)
		s.nextRound(timestamp)
	case 2:
		s.AllOrNothing = true
		events = append(events, allOrNothingActivatedEvent())
		s.nextRound(timestamp)
	default:
		next := s.Minigames[0]
		events = append(events, minigameReadyEvent(next))
		s.Phase = minigamePhase(StartMinigame, next)
	}
	return events, nil
}

// redistributeBets takes every pending bet from its bettor and pays the same
// amount to a deterministically shuffled player still holding coins. Bets
// are walked in sorted identity order so re-execution pays out identically.
func (s *GameState) redistributeBets(events *[]Event) {
	bettors := s.sortedBettors()
	if len(bettors) == 0 {
		return
	}

	alive := make([]int, 0, len(s.Players))
	for i := range s.Players {
		if s.Players[i].Coins > 0 {
			alive = append(alive, i)
		}
	}
	s.Dice.Shuffle(alive)

	swaps := make([][2]Identity, 0, len(bettors))
	for i, bettor := range bettors {
		amount := int64(s.Bets[bettor])
		bettorIdx, _ := s.findPlayer(bettor)
		s.updateCoins(bettorIdx, -amount, events)
		winnerIdx := alive[i%len(alive)]
		s.updateCoins(winnerIdx, amount, events)
		swaps = append(swaps, [2]Identity{bettor, s.Players[winnerIdx].ID})
	}
	*events = append(*events, playersSwappedCoinsEvent(swaps))
}

// nextRound advances the round counter, clears the ledger and restarts the
// betting timer.
func (s *GameState) nextRound(timestamp uint64) {
	s.Round++
	clear(s.Bets)
	s.RoundStarted = timestamp
	s.Phase = phase(Betting)
}

// startMinigame verifies the caller is launching the expected minigame with
// exactly the manifest the ledger implies, same players, names, wagers and
// order, before handing control to the sub-contract.
func (s *GameState) startMinigame(action Action) ([]Event, error) {
	if action.Minigame != s.Phase.Minigame {
		return nil, fmt.Errorf("%w: expected minigame %s, got %s", ErrConsistency, s.Phase.Minigame, action.Minigame)
	}
	if !s.MinigameSetup().Equal(action.Players) {
		return nil, fmt.Errorf("%w: minigame player manifest mismatch", ErrConsistency)
	}

	s.Phase = minigamePhase(InMinigame, action.Minigame)
	return []Event{minigameStartedEvent(action.Minigame)}, nil
}

func (s *GameState) endMinigame(result *MinigameResult, timestamp uint64) ([]Event, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: missing minigame result", ErrConsistency)
	}
	// Resolve every referenced player before applying any delta.
	indices := make([]int, len(result.PlayerResults))
	for i, pr := range result.PlayerResults {
		idx, ok := s.findPlayer(pr.PlayerID)
		if !ok {
			return nil, fmt.Errorf("%w: player %s not found for minigame result", ErrConsistency, pr.PlayerID)
		}
		indices[i] = idx
	}
	if len(s.Players) == 0 {
		return nil, fmt.Errorf("%w: no players found", ErrInvariant)
	}

	var events []Event
	for i, pr := range result.PlayerResults {
		if pr.CoinsDelta != 0 {
			s.updateCoins(indices[i], pr.CoinsDelta, &events)
		}
	}

	if s.checkGameOver(&events) {
		return events, nil
	}

	events = append(events, minigameEndedEvent(result))

	if s.Round >= Rounds-1 {
		// Stable max: the first player encountered wins a tie.
		winner := &s.Players[0]
		for i := range s.Players {
			if s.Players[i].Coins > winner.Coins {
				winner = &s.Players[i]
			}
		}
		events = append(events, gameEndedEvent(winner.ID, winner.Coins))
		s.Phase = phase(RewardsDistribution)
	} else {
		s.nextRound(timestamp)
	}
	return events, nil
}

// saturatingSub guards the timeout math against a timestamp that sorts
// before the stored reference point.
func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
