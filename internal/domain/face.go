package domain

import (
	"time"
)

// FaceRecord representa uma face registrada no sistema
type FaceRecord struct {
	EntryID       string    `json:"entry_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	RecognitionID string    `json:"recognition_id"`
	StorageKey    string    `json:"storage_key"`
	CreatedAt     time.Time `json:"-"`
}

// Row returns the wire form of the record:
// [entryId, firstName, lastName, recognitionId, storageKey].
func (f *FaceRecord) Row() []string {
	return []string{f.EntryID, f.FirstName, f.LastName, f.RecognitionID, f.StorageKey}
}

// FullName joins first and last name with a single space.
func (f *FaceRecord) FullName() string {
	return f.FirstName + " " + f.LastName
}

// UploadRequest is the body of register and authenticate calls.
type UploadRequest struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

// AttributesRequest is the body of an attributes call.
type AttributesRequest struct {
	EntryID string `json:"entryid"`
}

// MatchResult is one candidate returned by a similarity search
type MatchResult struct {
	FaceID     string  `json:"face_id"`
	Confidence float64 `json:"confidence"`
}

// ImageRef locates a stored image for the recognition service.
type ImageRef struct {
	Bucket string
	Key    string
}

type Gender struct {
	Value      string  `json:"Value"`
	Confidence float64 `json:"Confidence"`
}

type AgeRange struct {
	Low  int32 `json:"Low"`
	High int32 `json:"High"`
}

type Emotion struct {
	Type       string  `json:"Type"`
	Confidence float64 `json:"Confidence"`
}

// AttributeResult holds the attributes detected for the first face in an
// image. Emotions are sorted by confidence, highest first.
type AttributeResult struct {
	Gender   Gender    `json:"Gender"`
	AgeRange AgeRange  `json:"AgeRange"`
	Emotions []Emotion `json:"Emotions"`
}

// AttributesResponse is the 200 body of the attributes workflow.
type AttributesResponse struct {
	Gender   Gender    `json:"Gender"`
	AgeRange AgeRange  `json:"AgeRange"`
	Emotions []Emotion `json:"Emotions"`
	Name     string    `json:"Name"`
}
