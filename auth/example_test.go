package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/selfheal/auth"
)

func ExampleJWTAuthenticator() {
	a, err := auth.NewJWTAuthenticator(auth.JWTConfig{Secret: "change-me", Issuer: "selfheal"})
	if err != nil {
		panic(err)
	}
	token, err := a.SignToken("alice", []string{"operator"}, time.Hour)
	if err != nil {
		panic(err)
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	id, err := a.Authenticate(context.Background(), h)
	fmt.Println(id.Principal, id.Roles, err)
	// Output: alice [operator] <nil>
}

func ExamplePolicy_Authorize() {
	p := auth.DefaultPolicy()
	viewer := &auth.Identity{Principal: "vic", Roles: []string{"viewer"}}

	fmt.Println(p.Authorize(context.Background(), viewer, auth.ActionHealView) == nil)
	fmt.Println(p.Authorize(context.Background(), viewer, auth.ActionHealConfirm))
	// Output:
	// true
	// auth: access denied: vic may not heal:confirm
}
