package submission

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cg505/ocflib/internal/account"
	"github.com/cg505/ocflib/internal/dispatch"
	"github.com/cg505/ocflib/model"
)

// startEngine wires a service and all four jobs onto an engine over the
// in-memory store, mirroring the production wiring in main.
func startEngine(t *testing.T, f *fixture) *dispatch.Engine {
	t.Helper()
	e := dispatch.NewEngine(dispatch.NewMemoryStore(), f.svc.logger,
		dispatch.WithConcurrency(2),
		dispatch.WithEnginePollInterval(5*time.Millisecond),
	)
	RegisterJobs(e, f.svc)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { e.Stop(context.Background()) })
	return e
}

func awaitState(t *testing.T, e *dispatch.Engine, jobID string, want dispatch.State) *dispatch.Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			j, _ := e.GetJob(context.Background(), jobID)
			t.Fatalf("job %s never reached state %s (last: %+v)", jobID, want, j)
		case <-time.After(5 * time.Millisecond):
		}
		j, err := e.GetJob(context.Background(), jobID)
		require.NoError(t, err)
		if j.State == want {
			return j
		}
	}
}

func TestCreateAccountJob(t *testing.T) {
	f := newFixture()
	e := startEngine(t, f)

	j, err := e.Enqueue(context.Background(), JobCreateAccount, testRequest("ada"))
	require.NoError(t, err)

	done := awaitState(t, e, j.ID, dispatch.StateCompleted)

	var resp account.NewAccountResponse
	require.NoError(t, json.Unmarshal(done.Result, &resp))
	assert.Equal(t, account.StatusCreated, resp.Status)

	lines, err := e.Progress(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Contains(t, lines, "Validating account request")
	assert.Contains(t, lines, "Created account")
}

func TestGetPendingRequestsJob(t *testing.T) {
	f := newFixture()
	e := startEngine(t, f)
	require.NoError(t, f.repo.Create(context.Background(),
		model.PendingRequestFromRequest(testRequest("carol"))))

	j, err := e.Enqueue(context.Background(), JobGetPendingRequests, struct{}{})
	require.NoError(t, err)

	done := awaitState(t, e, j.ID, dispatch.StateCompleted)

	var rows []struct {
		Username string `json:"Username"`
	}
	require.NoError(t, json.Unmarshal(done.Result, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "carol", rows[0].Username)
}

func TestApprovalChainsIntoCreation(t *testing.T) {
	f := newFixture()
	e := startEngine(t, f)
	require.NoError(t, f.repo.Create(context.Background(),
		model.PendingRequestFromRequest(testRequest("carol").WithHandleWarnings(account.WarningsSubmit))))

	j, err := e.Enqueue(context.Background(), JobApproveRequest, DecisionPayload{Username: "carol"})
	require.NoError(t, err)
	awaitState(t, e, j.ID, dispatch.StateCompleted)

	// The chained create_account job provisions the account.
	require.Eventually(t, func() bool {
		f.creator.mu.Lock()
		defer f.creator.mu.Unlock()
		return len(f.creator.created) == 1
	}, 5*time.Second, 5*time.Millisecond)

	f.creator.mu.Lock()
	created := f.creator.created[0]
	f.creator.mu.Unlock()
	assert.Equal(t, "carol", created.Username)
	assert.Equal(t, account.WarningsCreate, created.HandleWarnings)
}

func TestRejectionJobDoesNotRetry(t *testing.T) {
	f := newFixture()
	e := startEngine(t, f)

	// No stored row: the decision fails, and must fail exactly once.
	j, err := e.Enqueue(context.Background(), JobRejectRequest, DecisionPayload{Username: "nobody"})
	require.NoError(t, err)

	done := awaitState(t, e, j.ID, dispatch.StateFailed)
	assert.Equal(t, 1, done.RetryCount)
	assert.Contains(t, done.LastError, ErrRequestNotFound.Error())
}

func TestRejectionJobSendsMail(t *testing.T) {
	f := newFixture()
	e := startEngine(t, f)
	require.NoError(t, f.repo.Create(context.Background(),
		model.PendingRequestFromRequest(testRequest("carol"))))

	j, err := e.Enqueue(context.Background(), JobRejectRequest,
		DecisionPayload{Username: "carol", Reason: "username is a dictionary word"})
	require.NoError(t, err)
	awaitState(t, e, j.ID, dispatch.StateCompleted)

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	assert.Equal(t, []string{"carol"}, f.notifier.rejected)
	assert.Equal(t, []string{"username is a dictionary word"}, f.notifier.reasons)
}
