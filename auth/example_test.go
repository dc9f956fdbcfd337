package auth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/fanout/auth"
)

func ExampleJWTAuthenticator_Authenticate() {
	key := []byte("my-secret-key")
	config := auth.JWTConfig{Issuer: "clinic-auth", Audience: "fanout"}

	token, err := auth.NewSigner(config, key).Sign(&auth.Identity{
		StaffID:  "staff-7",
		ClinicID: "42",
		Roles:    []string{"nurse"},
	}, time.Hour)
	if err != nil {
		panic(err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)

	a := auth.NewJWTAuthenticator(config, auth.NewStaticKeyProvider(key))
	id, err := a.Authenticate(context.Background(), headers)
	if err != nil {
		panic(err)
	}
	fmt.Println(id.StaffID, id.ClinicID, id.Roles)

	_, err = a.Authenticate(context.Background(), http.Header{})
	fmt.Println(errors.Is(err, auth.ErrMissingCredentials))
	// Output:
	// staff-7 42 [nurse]
	// true
}

func ExampleRoleAuthorizer_Authorize() {
	az := auth.DefaultRoleAuthorizer()
	nurse := &auth.Identity{StaffID: "n-1", Roles: []string{"nurse"}}

	fmt.Println(az.Authorize(context.Background(), nurse, auth.ActionReadBreakers) == nil)
	fmt.Println(errors.Is(az.Authorize(context.Background(), nurse, auth.ActionResetBreakers), auth.ErrForbidden))
	// Output:
	// true
	// true
}
