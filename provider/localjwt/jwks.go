package localjwt

import (
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// jwksKeyfunc builds a refreshing key resolver for a remote JWK set.
func jwksKeyfunc(url string) (jwt.Keyfunc, error) {
	jwks, err := keyfunc.Get(url, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("localjwt: background JWKS refresh failed: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, err
	}
	return jwks.Keyfunc, nil
}
