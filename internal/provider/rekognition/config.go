package rekognition

// Config holds configuration for AWS Rekognition provider
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-2")
	Region string

	// CollectionID is the face collection every operation runs against
	CollectionID string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:       "us-east-2",
		CollectionID: "database-faces",
	}
}
