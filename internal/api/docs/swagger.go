package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// UploadBody is the JSON body of register and authenticate calls
type UploadBody struct {
	Filename string `json:"filename" example:"alice_smith.jpeg"`
	Data     string `json:"data" example:"/9j/4AAQSkZJRgABAQ..."`
}

// AttributesBody is the optional JSON body of the attributes call
type AttributesBody struct {
	EntryID string `json:"entryid" example:"550e8400-e29b-41d4-a716-446655440000"`
}

type Gender struct {
	Value      string  `json:"Value" example:"Female"`
	Confidence float64 `json:"Confidence" example:"99.8"`
}

type AgeRange struct {
	Low  int32 `json:"Low" example:"25"`
	High int32 `json:"High" example:"33"`
}

type Emotion struct {
	Type       string  `json:"Type" example:"HAPPY"`
	Confidence float64 `json:"Confidence" example:"93.1"`
}

// AttributesResponse is the 200 body of GET /face_attributes
type AttributesResponse struct {
	Gender   Gender    `json:"Gender"`
	AgeRange AgeRange  `json:"AgeRange"`
	Emotions []Emotion `json:"Emotions"`
	Name     string    `json:"Name" example:"alice smith"`
}

// FaceRow documents the ordered array
// [entryId, firstName, lastName, recognitionId, storageKey]
type FaceRow struct {
	EntryID       string `json:"0" example:"550e8400-e29b-41d4-a716-446655440000"`
	FirstName     string `json:"1" example:"alice"`
	LastName      string `json:"2" example:"smith"`
	RecognitionID string `json:"3" example:"3f1c2a9e-8d4b-4c6e-9a1f-0b2c3d4e5f60"`
	StorageKey    string `json:"4" example:"alice_smith.jpeg"`
}

// Message documents a JSON string body
type Message struct {
	Message string `json:"message" example:"Successful Registration!"`
}

type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ErrorResponse is the transport error shape
type ErrorResponse struct {
	Code    string `json:"code" example:"RATE_LIMIT_EXCEEDED"`
	Message string `json:"message" example:"Rate limit exceeded, please try again later"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "facegate",
		Version:     "v1.0.0",
		Description: "Face registration and authentication gateway. Workflow replies other than 200 are JSON strings carrying a human-readable message.",
		Host:        "localhost:3000",
		Path:        "/",
	})

	rateLimited := response.New(ErrorResponse{}, "429", "Too Many Requests")

	endpoints := []*endpoint.EndPoint{
		endpoint.New(
			endpoint.PUT,
			"/register_faces",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Register a face"),
			endpoint.WithDescription("Stores the image under its filename, indexes the face and records the name parsed from the firstname_lastname filename stem."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(UploadBody{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(Message{}, "200", `"Successful Registration!"`),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(Message{}, "400", "Validation, storage or recognition failure message"),
				rateLimited,
			}),
		),

		endpoint.New(
			endpoint.PUT,
			"/authenticate_faces",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Authenticate a face"),
			endpoint.WithDescription("Searches the collection with the uploaded probe and returns the face row of the first matching registration."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(UploadBody{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FaceRow{}, "200", "Face row of the matched registration"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(Message{}, "400", "Failure message"),
				response.New(Message{}, "403", `"No Face Match Found!"`),
				rateLimited,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/face_attributes",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Detect face attributes"),
			endpoint.WithDescription("Gender, age range and emotions of a registered face. The entry id is read from the query string or from a JSON body."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("entryid", parameter.Query, parameter.WithDescription("Entry id returned in the face row")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttributesResponse{}, "200", "Detected attributes"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(Message{}, "400", "Failure message"),
				response.New(Message{}, "403", `"Entry does not exist!"`),
				rateLimited,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/registered_faces",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("List registered faces"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]FaceRow{}, "200", "Face rows, oldest first"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(Message{}, "400", "Failure message"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Process is up"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Pings the database, the object store and the recognition service."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "All dependencies reachable"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{}, "503", "At least one dependency failed"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
