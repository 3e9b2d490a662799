package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Validate_Register(t *testing.T) {
	base := RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r$ecretPass",
	}

	tests := []struct {
		description string
		modify      func(r *RegisterRequest)
		wantErr     bool
	}{
		{
			"Should succeed with valid data",
			func(r *RegisterRequest) {},
			false,
		},
		{
			"Should fail if username is too short",
			func(r *RegisterRequest) { r.Username = "al" },
			true,
		},
		{
			"Should fail if username is not alphanumeric",
			func(r *RegisterRequest) { r.Username = "alice!" },
			true,
		},
		{
			"Should fail if email is invalid",
			func(r *RegisterRequest) { r.Email = "not-an-email" },
			true,
		},
		{
			"Should fail if password is too short",
			func(r *RegisterRequest) { r.Password = "Sh0rt$" },
			true,
		},
		{
			"Should fail if password has no uppercase",
			func(r *RegisterRequest) { r.Password = "sup3r$ecretpass" },
			true,
		},
		{
			"Should fail if password has no number",
			func(r *RegisterRequest) { r.Password = "Super$ecretPass" },
			true,
		},
		{
			"Should fail if password has no special character",
			func(r *RegisterRequest) { r.Password = "Sup3rSecretPass" },
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)
			request := base
			tt.modify(&request)

			err := ValidateRegister(request)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}
