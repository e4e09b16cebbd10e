package worker

import (
	"encoding/json"
	"testing"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskMessage_JSONShape(t *testing.T) {
	task := affiliate.NewStandaloneTask("B0ABCDEF12")

	msg := taskMessage{
		TaskID:      task.ID.String(),
		ASIN:        task.ASIN,
		Platform:    string(task.Platform),
		CallbackURL: "https://api.example.com/api/v1/affiliate/callback",
		Standalone:  task.IsStandalone(),
	}

	payload, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))

	// External workers depend on these exact key names
	assert.Equal(t, task.ID.String(), decoded["taskId"])
	assert.Equal(t, "B0ABCDEF12", decoded["asin"])
	assert.Equal(t, "amazon", decoded["platform"])
	assert.Equal(t, "https://api.example.com/api/v1/affiliate/callback", decoded["callbackUrl"])
	assert.Equal(t, true, decoded["standalone"])
}

func TestStatusKey(t *testing.T) {
	task := affiliate.NewStandaloneTask("B0ABCDEF12")

	assert.Equal(t, "affiliate_task_status:"+task.ID.String(), statusKey(task.ID, false))
	assert.Equal(t, "standalone_task_status:"+task.ID.String(), statusKey(task.ID, true))
}
