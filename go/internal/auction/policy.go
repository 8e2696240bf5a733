package auction

import "fmt"

// RejoinPolicy decides what JOIN does with a nickname that is already taken.
type RejoinPolicy string

const (
	// RejoinReattach hands the existing student back to the caller untouched.
	RejoinReattach RejoinPolicy = "reattach"
	// RejoinReject refuses the join; the host closes the connection.
	RejoinReject RejoinPolicy = "reject"
)

// AllocationKind selects how starting inventory is dealt at game start.
type AllocationKind string

const (
	// AllocationPartition replicates every template once per student,
	// shuffles the pool and deals each student an equal contiguous share.
	AllocationPartition AllocationKind = "partition"
	// AllocationDraw gives every student ItemsPerStudent random template copies.
	AllocationDraw AllocationKind = "draw"
)

// BidPolicy controls bid acceptance and the auction countdown.
type BidPolicy struct {
	// MinimumBid is the floor for the opening bid. Later bids only need to
	// beat the current highest bid.
	MinimumBid int `yaml:"minimum_bid"`
	// AuctionSeconds is the initial countdown. Zero means the auction runs
	// until the host closes it.
	AuctionSeconds int `yaml:"auction_seconds"`
	// ExtensionSeconds raises the countdown to at least this value after an
	// accepted bid. Zero disables the extension.
	ExtensionSeconds int `yaml:"extension_seconds"`
}

// AllocationPolicy controls starting inventory.
type AllocationPolicy struct {
	Kind            AllocationKind `yaml:"kind"`
	ItemsPerStudent int            `yaml:"items_per_student"`
	// Seed makes dealing reproducible. Zero picks a random seed per game.
	Seed int64 `yaml:"seed"`
}

// Policy bundles the configurable rules of a room.
type Policy struct {
	Bid               BidPolicy        `yaml:"bid"`
	Rejoin            RejoinPolicy     `yaml:"rejoin"`
	Allocation        AllocationPolicy `yaml:"allocation"`
	EnforceSellerTurn bool             `yaml:"enforce_seller_turn"`
}

// DefaultPolicy returns the rules used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Bid: BidPolicy{
			MinimumBid:       0,
			AuctionSeconds:   30,
			ExtensionSeconds: 10,
		},
		Rejoin: RejoinReattach,
		Allocation: AllocationPolicy{
			Kind:            AllocationPartition,
			ItemsPerStudent: 2,
		},
		EnforceSellerTurn: true,
	}
}

// Validate checks that every field holds a usable value.
func (p Policy) Validate() error {
	if p.Bid.MinimumBid < 0 {
		return fmt.Errorf("minimum bid must not be negative: %d", p.Bid.MinimumBid)
	}
	if p.Bid.AuctionSeconds < 0 || p.Bid.ExtensionSeconds < 0 {
		return fmt.Errorf("auction timings must not be negative")
	}
	switch p.Rejoin {
	case RejoinReattach, RejoinReject:
	default:
		return fmt.Errorf("unknown rejoin policy %q", p.Rejoin)
	}
	switch p.Allocation.Kind {
	case AllocationPartition:
	case AllocationDraw:
		if p.Allocation.ItemsPerStudent <= 0 {
			return fmt.Errorf("items per student must be positive for draw allocation")
		}
	default:
		return fmt.Errorf("unknown allocation policy %q", p.Allocation.Kind)
	}
	return nil
}
