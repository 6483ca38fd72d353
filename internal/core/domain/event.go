package domain

import "strconv"

// Event is an observable domain event published to the event stream after a
// transaction commits. Payload values are strings so the stream encoding is
// uniform across consumers.
type Event struct {
	Name    string            `json:"name"`
	Payload map[string]string `json:"payload"`
}

// Event names.
const (
	EventCardCreated      = "CardCreated"
	EventTransfer         = "Transfer"
	EventApproval         = "Approval"
	EventAuctionCreated   = "AuctionCreated"
	EventAuctionSucceeded = "AuctionSucceeded"
	EventAuctionCancelled = "AuctionCancelled"
	EventKnobUpdated      = "ContractKnobUpdated"
	EventRoleChanged      = "RoleChanged"
	EventPaused           = "Paused"
	EventUnpaused         = "Unpaused"
)

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

// NewCardCreated builds the birth event for a freshly minted card.
func NewCardCreated(c *Card) Event {
	return Event{
		Name: EventCardCreated,
		Payload: map[string]string{
			"card_id":   itoa(c.ID),
			"matron_id": itoa(c.MatronID),
			"sire_id":   itoa(c.SireID),
			"traits":    strconv.FormatUint(c.Traits, 10),
		},
	}
}

// NewTransfer builds a token ownership transfer event. A mint uses the zero
// address as from; a burn uses it as to.
func NewTransfer(from, to string, tokenID int64) Event {
	return Event{
		Name: EventTransfer,
		Payload: map[string]string{
			"from":     from,
			"to":       to,
			"token_id": itoa(tokenID),
		},
	}
}

// NewApproval builds a transfer approval event.
func NewApproval(owner, approved string, tokenID int64) Event {
	return Event{
		Name: EventApproval,
		Payload: map[string]string{
			"owner":    owner,
			"approved": approved,
			"token_id": itoa(tokenID),
		},
	}
}

// NewAuctionCreated builds the escrow-complete event for a new auction.
func NewAuctionCreated(a *Auction) Event {
	return Event{
		Name: EventAuctionCreated,
		Payload: map[string]string{
			"token_id":       itoa(a.TokenID),
			"starting_price": itoa(a.StartingPrice),
			"ending_price":   itoa(a.EndingPrice),
			"duration":       itoa(a.Duration),
		},
	}
}

// NewAuctionSucceeded builds the settlement event for a won auction.
func NewAuctionSucceeded(tokenID, totalPrice int64, winner string) Event {
	return Event{
		Name: EventAuctionSucceeded,
		Payload: map[string]string{
			"token_id":    itoa(tokenID),
			"total_price": itoa(totalPrice),
			"winner":      winner,
		},
	}
}

// NewAuctionCancelled builds the cancellation event.
func NewAuctionCancelled(tokenID int64) Event {
	return Event{
		Name:    EventAuctionCancelled,
		Payload: map[string]string{"token_id": itoa(tokenID)},
	}
}

// NewKnobUpdated builds an administrative knob change event.
func NewKnobUpdated(name string, value int64) Event {
	return Event{
		Name: EventKnobUpdated,
		Payload: map[string]string{
			"knob":  name,
			"value": itoa(value),
		},
	}
}

// NewRoleChanged builds the generic role reassignment notification.
func NewRoleChanged(role, address string) Event {
	return Event{
		Name: EventRoleChanged,
		Payload: map[string]string{
			"role":    role,
			"address": address,
		},
	}
}

// NewPaused and NewUnpaused mark pause state changes for a scope
// ("deck" or "auction").
func NewPaused(scope string) Event {
	return Event{Name: EventPaused, Payload: map[string]string{"scope": scope}}
}

func NewUnpaused(scope string) Event {
	return Event{Name: EventUnpaused, Payload: map[string]string{"scope": scope}}
}
