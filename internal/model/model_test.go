package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllModels(t *testing.T) {
	models := AllModels()
	assert.Len(t, models, 1)
	assert.IsType(t, &TxRecord{}, models[0])
	assert.Equal(t, "tx_records", TxRecord{}.TableName())
}

func TestNopJournal(t *testing.T) {
	var j Journal = NopJournal{}
	ctx := context.Background()

	assert.NoError(t, j.Record(ctx, &TxRecord{TxHash: "0x01"}))
	assert.NoError(t, j.UpdateStatus(ctx, "0x01", TxStatusConfirmed, 10, ""))
	recs, err := j.Recent(ctx, "hx0000000000000000000000000000000000000001", 5)
	assert.NoError(t, err)
	assert.Empty(t, recs)
}
