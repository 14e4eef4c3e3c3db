package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeReport represents report writing errors
	ErrorTypeReport ErrorType = "report"
)

// ScrapeError represents a scraper-specific error
type ScrapeError struct {
	Type    ErrorType
	Dealer  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Dealer, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Dealer, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// New creates a new ScrapeError
func New(errType ErrorType, dealer, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Dealer:  dealer,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(dealer, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, dealer, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(dealer, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, dealer, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewReport creates a new report error
func NewReport(message string, err error) *ScrapeError {
	return New(ErrorTypeReport, "", message, err)
}
