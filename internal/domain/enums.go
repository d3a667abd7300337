// Package domain defines the core domain models for the guide service.
package domain

// GuideStatus represents the lifecycle status of a persisted guide.
type GuideStatus string

const (
	GuideStatusPending   GuideStatus = "pending"
	GuideStatusCompleted GuideStatus = "completed"
	GuideStatusError     GuideStatus = "error"
)

// Terminal reports whether no further transitions are allowed.
func (s GuideStatus) Terminal() bool {
	return s == GuideStatusCompleted || s == GuideStatusError
}

// Category is the closed activity vocabulary.
type Category string

const (
	CategoryCultural   Category = "cultural"
	CategoryRestaurant Category = "restaurant"
	CategoryOther      Category = "other"
)

// LLMPurpose tags an LLM call in the call ledger.
type LLMPurpose string

const (
	LLMPurposeGuide          LLMPurpose = "guide"
	LLMPurposeActivityVerify LLMPurpose = "activity_verify"
	LLMPurposeActivity       LLMPurpose = "activity"
	LLMPurposeDiscover       LLMPurpose = "discover"
)

// Document store collections.
const (
	CollectionAnonymousGuides = "anonymousGuides"
	CollectionDays            = "days"
	CollectionDevices         = "devices"
	CollectionLLMCalls        = "llmCalls"
)
