// Package types contains the wire shapes exchanged with the results backend.
package types

// ScorePair is the official score sent to the backend.
type ScorePair struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// PresenceRecord is one athlete's aggregate line in a result write.
type PresenceRecord struct {
	AthleteID string `json:"athleteId"`
	TeamID    string `json:"teamId"`
	Goals     int    `json:"goals"`
	Assists   int    `json:"assists"`
	Status    string `json:"status"`
}

// ResultPayload is the single write accepted by the backend. OfficialScore is
// nil while the match has not started.
type ResultPayload struct {
	OfficialScore *ScorePair       `json:"officialScore"`
	Presences     []PresenceRecord `json:"presences"`
}
