package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"dsakyc/internal/kyc/models"
)

func TestMongoDocumentConversion(t *testing.T) {
	app := newApplication()
	app.Version = 4
	app.Bank = &models.BankVerificationRecord{
		IFSC:                 "HDFC0001234",
		AccountNumber:        "50100012345678",
		RequiresManualReview: true,
		Mismatch:             &models.NameMismatch{BankName: "AMIT VERMA", KYCName: "Rahul Sharma", Similarity: 0.25},
		ReferenceSubjectID:   &app.Subjects[0].ID,
	}

	rec, err := toMongoRecord(app)
	require.NoError(t, err)
	assert.Equal(t, app.ID.String(), rec.ID)
	assert.Equal(t, "individual", rec.EntityType)
	assert.Equal(t, int64(4), rec.Version)

	raw, err := bson.Marshal(rec.Document)
	require.NoError(t, err)

	got, err := fromMongoDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, app.ID, got.ID)
	assert.Equal(t, app.Subjects[0].ID, got.Subjects[0].ID)
	require.NotNil(t, got.Bank.Mismatch)
	assert.InDelta(t, 0.25, got.Bank.Mismatch.Similarity, 1e-9)
	assert.Equal(t, app.Subjects[0].ID, *got.Bank.ReferenceSubjectID)
	assert.True(t, got.Bank.RequiresManualReview)
}
