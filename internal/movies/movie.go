package movies

import "github.com/segmentio/ksuid"

const (
	DefaultTitle = "The Amazing Spider-Man 2"
	DefaultYear  = 2012
)

type Movie struct {
	ID    string `json:"id" dynamodbav:"id"`
	Title string `json:"title" dynamodbav:"title"`
	Year  int    `json:"year" dynamodbav:"year"`
}

func NewID() string {
	return ksuid.New().String()
}

// Default is the movie stored when a request carries no payload. Every call
// gets a fresh ID.
func Default() Movie {
	return Movie{
		ID:    NewID(),
		Title: DefaultTitle,
		Year:  DefaultYear,
	}
}
