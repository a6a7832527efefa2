package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_IssueVerify(t *testing.T) {
	iss := NewIssuer("Test", "secret", 24*time.Hour, 12*time.Hour)
	student := Identity{Subject: "s1", Role: RoleStudent}
	admin := Identity{Subject: "a1", Role: RoleAdmin}

	studentToken, err := iss.Issue(student)
	require.NoError(t, err)
	adminToken, err := iss.Issue(admin)
	require.NoError(t, err)

	// generate an expired token
	expiredIss := NewIssuer("Test", "secret", 24*time.Hour, 12*time.Hour)
	expiredIss.nowFunc = func() time.Time { return time.Now().Add(-25 * time.Hour) }
	expiredToken, err := expiredIss.Issue(student)
	require.NoError(t, err)

	// an admin token whose admin flag was dropped
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "s1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Role:             RoleAdmin,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	otherSecret, err := NewIssuer("Test", "other", time.Hour, time.Hour).Issue(student)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		want    Role
		wantID  Identity
		wantErr error
	}{
		{name: "no token", want: RoleStudent, wantErr: ErrInvalidToken},
		{name: "malformed", token: "lol.lmao.mdr", want: RoleStudent, wantErr: ErrInvalidToken},
		{name: "expired", token: expiredToken, want: RoleStudent, wantErr: ErrInvalidToken},
		{name: "bad signature", token: otherSecret, want: RoleStudent, wantErr: ErrInvalidToken},
		{name: "role/flag mismatch", token: forged, want: RoleAdmin, wantErr: ErrInvalidToken},
		{name: "student token on admin surface", token: studentToken, want: RoleAdmin, wantErr: ErrWrongRole},
		{name: "admin token on student surface", token: adminToken, want: RoleStudent, wantErr: ErrWrongRole},
		{name: "valid student", token: studentToken, want: RoleStudent, wantID: student},
		{name: "valid admin", token: adminToken, want: RoleAdmin, wantID: admin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := iss.Verify(tt.token, tt.want)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestIssuer_TTL(t *testing.T) {
	iss := NewIssuer("Test", "secret", 24*time.Hour, 12*time.Hour)
	iss.nowFunc = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }

	c := iss.claims(Identity{Subject: "a1", Role: RoleAdmin})
	assert.Equal(t, 12*time.Hour, c.ExpiresAt.Sub(c.IssuedAt.Time))
	assert.True(t, c.IsAdmin)

	c = iss.claims(Identity{Subject: "s1", Role: RoleStudent})
	assert.Equal(t, 24*time.Hour, c.ExpiresAt.Sub(c.IssuedAt.Time))
	assert.False(t, c.IsAdmin)

	_, err := iss.Issue(Identity{Subject: "x", Role: "tutor"})
	assert.Error(t, err)
}
