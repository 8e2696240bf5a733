package models

import "time"

// ActiveAuction is the single in-flight listing of a room.
type ActiveAuction struct {
	InstanceID     string `json:"instanceId"`
	SellerID       string `json:"sellerId"`
	SellerNickname string `json:"sellerNickname"`
	Text           string `json:"text"`
	Concept        string `json:"concept"`
	HighestBid     *Bid   `json:"highestBid"`
	TimeLeft       int    `json:"timeLeft"` // seconds; 0 for untimed auctions
}

// Bid is the current winning offer. Earlier bids are not kept.
type Bid struct {
	StudentID string    `json:"studentId"`
	Nickname  string    `json:"nickname"`
	Amount    int       `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}
