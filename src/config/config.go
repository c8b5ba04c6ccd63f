package config

import (
	"fmt"
	"os"
	"strconv"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

// Rental dates carry no time component. A booked range is inclusive on both ends.
const DATE_PARSE_FORMAT = "2006-01-02"

var (
	API_HOST            = os.Getenv("API_HOST")
	API_SECRET          = os.Getenv("API_SECRET")
	OAUTH_CLIENT_ID     = os.Getenv("OAUTH_CLIENT_ID")
	OAUTH_CLIENT_SECRET = os.Getenv("OAUTH_CLIENT_SECRET")
)

// SupportUserID is the platform account that claim threads and moderation
// notices are opened against.
func SupportUserID() uint {
	v := os.Getenv("SUPPORT_USER_ID")
	id, err := strconv.Atoi(v)
	if err != nil || id < 1 {
		return 2
	}
	return uint(id)
}

const (
	COMMISSION_RATE = 0.10
	TAX_RATE        = 0.07
)
