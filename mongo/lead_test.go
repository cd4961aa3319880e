package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/phbpx/minicrm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var created = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func leadDoc(t *testing.T, l minicrm.Lead) bson.D {
	t.Helper()

	raw, err := bson.Marshal(l)
	require.NoError(t, err)

	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func sampleLead() minicrm.Lead {
	return minicrm.Lead{
		ID:         "lead-1",
		Name:       "A",
		Email:      "a@x.com",
		Phone:      "1",
		Status:     minicrm.StatusNew,
		FollowUps:  []minicrm.FollowUp{},
		CreatedAt:  created,
		ModifiedAt: created,
	}
}

func TestLeadStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("list all", func(mt *mtest.T) {
		newer := sampleLead()
		older := sampleLead()
		older.ID = "lead-0"
		older.Status = minicrm.StatusConverted
		older.CreatedAt = created.Add(-time.Hour)
		older.FollowUps = []minicrm.FollowUp{{ID: "f1", Date: created, Notes: "call"}}

		ns := namespace(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, leadDoc(t, newer), leadDoc(t, older)),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		leads, err := NewLeadStore(mt.Coll).ListAll(context.Background())
		require.NoError(mt, err)
		require.Len(mt, leads, 2)

		assert.Equal(mt, "lead-1", leads[0].ID)
		assert.Equal(mt, minicrm.StatusConverted, leads[1].Status)
		require.Len(mt, leads[1].FollowUps, 1)
		assert.Equal(mt, "call", leads[1].FollowUps[0].Notes)
		assert.True(mt, created.Equal(leads[1].FollowUps[0].Date))
	})

	mt.Run("list empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		leads, err := NewLeadStore(mt.Coll).ListAll(context.Background())
		require.NoError(mt, err)
		assert.NotNil(mt, leads)
		assert.Empty(mt, leads)
	})

	mt.Run("get by id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, leadDoc(t, sampleLead())))

		lead, err := NewLeadStore(mt.Coll).GetByID(context.Background(), "lead-1")
		require.NoError(mt, err)
		assert.Equal(mt, "A", lead.Name)
		assert.True(mt, created.Equal(lead.CreatedAt))
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := NewLeadStore(mt.Coll).GetByID(context.Background(), "missing")
		assert.ErrorIs(mt, err, minicrm.ErrLeadNotFound)
	})

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		lead, err := NewLeadStore(mt.Coll).Create(context.Background(), minicrm.NewLead{Name: "A", Email: "a@x.com", Phone: "1"})
		require.NoError(mt, err)
		assert.NotEmpty(mt, lead.ID)
		assert.Equal(mt, minicrm.StatusNew, lead.Status)
		assert.Empty(mt, lead.FollowUps)
	})

	mt.Run("create invalid", func(mt *mtest.T) {
		_, err := NewLeadStore(mt.Coll).Create(context.Background(), minicrm.NewLead{Name: "A"})
		assert.ErrorIs(mt, err, minicrm.ErrInvalidLead)
	})

	mt.Run("create store failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "boom",
		}))

		_, err := NewLeadStore(mt.Coll).Create(context.Background(), minicrm.NewLead{Name: "A", Email: "a@x.com", Phone: "1"})
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, minicrm.ErrInvalidLead)
	})

	mt.Run("update fields", func(mt *mtest.T) {
		updated := sampleLead()
		updated.Status = minicrm.StatusContacted
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: leadDoc(t, updated)}))

		contacted := minicrm.StatusContacted
		lead, err := NewLeadStore(mt.Coll).UpdateFields(context.Background(), "lead-1", minicrm.LeadUpdate{Status: &contacted})
		require.NoError(mt, err)
		assert.Equal(mt, minicrm.StatusContacted, lead.Status)
	})

	mt.Run("update fields not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		lost := minicrm.StatusLost
		_, err := NewLeadStore(mt.Coll).UpdateFields(context.Background(), "missing", minicrm.LeadUpdate{Status: &lost})
		assert.ErrorIs(mt, err, minicrm.ErrLeadNotFound)
	})

	mt.Run("append follow-up", func(mt *mtest.T) {
		updated := sampleLead()
		updated.FollowUps = []minicrm.FollowUp{{ID: "f1", Date: created, Notes: "call"}}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: leadDoc(t, updated)}))

		lead, err := NewLeadStore(mt.Coll).AppendFollowUp(context.Background(), "lead-1", minicrm.FollowUpInput{Date: created, Notes: "call"})
		require.NoError(mt, err)
		require.Len(mt, lead.FollowUps, 1)
		assert.False(mt, lead.FollowUps[0].IsCompleted)
	})

	mt.Run("complete follow-up", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		assert.NoError(mt, NewLeadStore(mt.Coll).CompleteFollowUp(context.Background(), "lead-1", "f1"))
	})

	mt.Run("complete follow-up missing task", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		err := NewLeadStore(mt.Coll).CompleteFollowUp(context.Background(), "lead-1", "missing")
		assert.ErrorIs(mt, err, minicrm.ErrFollowUpNotFound)
	})

	mt.Run("complete follow-up missing lead", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch),
		)

		err := NewLeadStore(mt.Coll).CompleteFollowUp(context.Background(), "missing", "f1")
		assert.ErrorIs(mt, err, minicrm.ErrLeadNotFound)
	})

	mt.Run("status check", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, NewLeadStore(mt.Coll).StatusCheck(context.Background()))
	})
}
