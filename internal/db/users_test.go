package db

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUserNormalizesEmail(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectQuery(sql("INSERT INTO users (userid, firstname, lastname, email, role)")).
		WithArgs(pgxmock.AnyArg(), "Ann", "Lee", "a@b.com", "member").
		WillReturnRows(pgxmock.NewRows([]string{"userid"}).AddRow("u1"))

	id, err := q.AddUser(context.Background(), "Ann", "Lee", " A@B.com", RoleMember)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestAddUserAlreadyExists(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectQuery(sql("INSERT INTO users")).
		WithArgs(pgxmock.AnyArg(), "Ann", "Lee", "a@b.com", "member").
		WillReturnRows(pgxmock.NewRows([]string{"userid"}))

	_, err := q.AddUser(context.Background(), "Ann", "Lee", "a@b.com", RoleMember)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAddUserRejectsUnknownRole(t *testing.T) {
	_, q := newMock(t)

	_, err := q.AddUser(context.Background(), "Ann", "Lee", "a@b.com", Role("admin"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSetUserRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		rows    int64
		expect  bool
		wantErr error
	}{
		{name: "valid role", role: "cdnerd", rows: 1, expect: true},
		{name: "unknown user", role: "staff", rows: 0, expect: true, wantErr: ErrNotFound},
		{name: "invalid role never touches the table", role: "admin", wantErr: ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, q := newMock(t)
			if tt.expect {
				mock.ExpectExec(sql("UPDATE users SET role = $2 WHERE userid = $1")).
					WithArgs("u1", tt.role).
					WillReturnResult(pgxmock.NewResult("UPDATE", tt.rows))
			}

			err := q.SetUserRole(context.Background(), "u1", tt.role)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetUser(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectQuery(sql("FROM users WHERE userid = $1")).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"userid", "firstname", "lastname", "email", "role"}).
			AddRow("u1", "Ann", "Lee", "a@b.com", RoleEboard))

	u, err := q.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", u.Name())
	assert.Equal(t, RoleEboard, u.Role)
}

func TestModifyEmailTaken(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectQuery(sql("SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND userid <> $2)")).
		WithArgs("b@c.com", "u1").
		WillReturnRows(existsRows(true))

	err := q.ModifyEmail(context.Background(), "u1", "B@c.com")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAddInvite(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectExec(sql("INSERT INTO invitedusers (email)")).
		WithArgs("a@b.com").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(sql("INSERT INTO invitedusers (email)")).
		WithArgs("a@b.com").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	require.NoError(t, q.AddInvite(context.Background(), "a@b.com"))
	err := q.AddInvite(context.Background(), "A@b.com ")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRemoveInviteNotFound(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectExec(sql("DELETE FROM invitedusers WHERE email = $1")).
		WithArgs("a@b.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := q.RemoveInvite(context.Background(), "a@b.com")
	assert.True(t, IsNotFoundFor(err, EntityInvite))
}

func TestGetParameterNotFound(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectQuery(sql("SELECT value FROM parameters WHERE key = $1")).
		WithArgs(ParamGenres).
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	_, err := q.GetParameter(context.Background(), ParamGenres)
	assert.True(t, IsNotFoundFor(err, EntityParameter))
}
