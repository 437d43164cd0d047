package helpers

import (
	"crypto/rand"
	"math/big"
	"os"
	"testing"

	"github.com/authorizerdev/authorizer-go"
)

func randInt(max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}

// GeneratePassword builds a 12 character password satisfying the Authorizer
// strength rules (upper, lower, digit, special).
func GeneratePassword() string {
	const (
		lower   = "abcdefghijklmnopqrstuvwxyz"
		upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		digits  = "0123456789"
		special = "!@#$%^&*"
	)
	pools := []string{upper, lower, digits, special}
	all := lower + upper + digits + special

	password := make([]byte, 12)
	for i, pool := range pools {
		password[i] = pool[randInt(len(pool))]
	}
	for i := len(pools); i < len(password); i++ {
		password[i] = all[randInt(len(all))]
	}
	for i := range password {
		j := randInt(len(password))
		password[i], password[j] = password[j], password[i]
	}

	return string(password)
}

// AcquireAccount signs up a contractor account with the given roles and logs
// it in, returning the access token. The token doubles as the session cookie
// value for requests against the service.
func AcquireAccount(t *testing.T, authzURL, email, password string, roles []string) string {
	t.Helper()

	client, err := authorizer.NewAuthorizerClient(os.Getenv("AUTHZ_CLIENT_ID"), authzURL, "", nil)
	if err != nil {
		t.Fatalf("Failed to create authorizer client: %v", err)
	}

	rolePtrs := make([]*string, len(roles))
	for i := range roles {
		rolePtrs[i] = &roles[i]
	}

	_, err = client.SignUp(&authorizer.SignUpInput{
		Email:           &email,
		Password:        password,
		ConfirmPassword: password,
		Roles:           rolePtrs,
	})
	if err != nil {
		// The account may exist from an earlier run; login decides.
		t.Logf("Signup for %s did not complete: %v", email, err)
	}

	res, err := client.Login(&authorizer.LoginInput{
		Email:    &email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("Login failed for %s: %v", email, err)
	}
	if res.AccessToken == nil {
		t.Fatalf("No access token returned for %s", email)
	}

	return *res.AccessToken
}
