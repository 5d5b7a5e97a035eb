package protocol

// Human-readable rejection reasons carried by error messages. These are shown
// to players as-is, so the exact wording is part of the protocol.
const (
	ReasonOutOfBounds    = "Out of bounds."
	ReasonNoStamina      = "No stamina."
	ReasonTileSearched   = "Tile recently searched."
	ReasonRecipeNotFound = "Recipe not found."
	ReasonNotEnoughItems = "Not enough ingredients."
	ReasonBadDirection   = "Bad direction."
)

var knownReasons = map[string]struct{}{
	ReasonOutOfBounds:    {},
	ReasonNoStamina:      {},
	ReasonTileSearched:   {},
	ReasonRecipeNotFound: {},
	ReasonNotEnoughItems: {},
	ReasonBadDirection:   {},
}

func IsKnownReason(reason string) bool {
	_, ok := knownReasons[reason]
	return ok
}
