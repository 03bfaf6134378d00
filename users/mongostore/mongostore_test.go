package mongostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/jrsteele09/storefront-sessions/users"
)

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get by id", func(mt *mtest.T) {
		store := New(mt.DB)
		ns := mt.DB.Name() + "." + UsersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "id", Value: "user-1"},
			{Key: "email", Value: "jane@example.com"},
			{Key: "hashed_password", Value: "$2a$10$hash"},
			{Key: "user_type", Value: "customer"},
		}))

		p, err := store.GetByID(ctx, "user-1")
		require.NoError(mt, err)
		require.Equal(mt, "user-1", p.ID)
		require.Equal(mt, "jane@example.com", p.Email)
		require.Equal(mt, "$2a$10$hash", p.PasswordHash)
		require.Equal(mt, users.TypeCustomer, p.Type)
	})

	mt.Run("get by email not found", func(mt *mtest.T) {
		store := New(mt.DB)
		ns := mt.DB.Name() + "." + UsersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := store.GetByEmail(ctx, "nobody@example.com")
		require.ErrorIs(mt, err, users.ErrNotFound)
	})

	mt.Run("upsert assigns id", func(mt *mtest.T) {
		store := New(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		p := &users.Principal{Email: " Jane@Example.com ", Type: users.TypeSeller}
		require.NoError(mt, store.Upsert(ctx, p))
		require.NotEmpty(mt, p.ID)
		require.Equal(mt, "jane@example.com", p.Email)
	})
}
