package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/outfits"
)

// fakeCollaborators drives the coordinator with canned or failing agents.
type fakeCollaborators struct {
	catalog       outfits.Catalog
	outfitsErr    error
	makeupErr     error
	sizeErr       error
	riskErr       error
	outfitsHang   bool
	makeupHang    bool
	sizeHang      bool
	makeupLooks   []agents.MakeupLook
	riskScore     float64
	sizeCallCount int
}

func (f *fakeCollaborators) ComputeOutfits(ctx context.Context, params agents.OutfitSearchParams) (*agents.OutfitSearchResult, error) {
	if f.outfitsHang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.outfitsErr != nil {
		return nil, f.outfitsErr
	}
	return &agents.OutfitSearchResult{Catalog: f.catalog}, nil
}

func (f *fakeCollaborators) ComputeMakeup(ctx context.Context, params agents.MakeupParams) (*agents.MakeupResult, error) {
	if f.makeupHang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.makeupErr != nil {
		return nil, f.makeupErr
	}
	return &agents.MakeupResult{Looks: f.makeupLooks}, nil
}

func (f *fakeCollaborators) PredictSize(ctx context.Context, params agents.SizeParams) (*agents.SizeResult, error) {
	f.sizeCallCount++
	if f.sizeHang {
		// Ignores cancellation, like a collaborator with no internal timeout.
		time.Sleep(2 * time.Second)
		return nil, errors.New("late")
	}
	if f.sizeErr != nil {
		return nil, f.sizeErr
	}
	return &agents.SizeResult{ProductID: params.Product.ID, RecommendedSize: "M", Confidence: 0.9}, nil
}

func (f *fakeCollaborators) PredictReturnRisk(ctx context.Context, params agents.ReturnRiskParams) (*agents.ReturnRiskResult, error) {
	if f.riskErr != nil {
		return nil, f.riskErr
	}
	return &agents.ReturnRiskResult{Score: f.riskScore}, nil
}

func storeWorkflowIDs(s *MemoryStore) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.arenas))
	for id := range s.arenas {
		ids = append(ids, id)
	}
	return ids
}

func testCatalog() outfits.Catalog {
	return outfits.Catalog{
		outfits.RoleTop:    {{ID: "t1", Name: "Silk Blouse", Role: outfits.RoleTop, Price: 60, Rating: 4.5}},
		outfits.RoleBottom: {{ID: "b1", Name: "Wide Trousers", Role: outfits.RoleBottom, Price: 70, Rating: 4.2}},
		outfits.RoleShoes:  {{ID: "s1", Name: "Leather Flats", Role: outfits.RoleShoes, Price: 50, Rating: 4.0}},
	}
}

func testCoordinator(collab agents.Collaborators, store Store, timeout time.Duration) *Coordinator {
	cfg := DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	if timeout > 0 {
		cfg.StageTimeout = timeout
	}
	return NewCoordinator(store, collab, NewExecutor(store, nil, nil), cfg, nil)
}

func TestCoordinatorHappyPath(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collab := &fakeCollaborators{catalog: testCatalog(), riskScore: 0.1}
	c := testCoordinator(collab, store, 0)

	rec, err := c.Execute(ctx, ShoppingIntent{UserID: "u-1", Budget: 300})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(rec.Outfits) == 0 {
		t.Fatal("no outfits in recommendation")
	}
	if rec.ReturnRisk == nil || rec.ReturnRisk.Score != 0.1 {
		t.Errorf("return risk = %+v, want score 0.1", rec.ReturnRisk)
	}
	if len(rec.Makeup) != 0 {
		t.Errorf("makeup present without selfie: %+v", rec.Makeup)
	}
	if !rec.Metadata.Success {
		t.Error("metadata success = false")
	}

	wf, err := store.GetWorkflow(ctx, rec.WorkflowID)
	if err != nil {
		t.Fatalf("GetWorkflow failed: %v", err)
	}
	if wf.Status != StatusDelivered {
		t.Errorf("status = %s, want %s", wf.Status, StatusDelivered)
	}
	if wf.FinalResult == nil {
		t.Error("final result not persisted")
	}
}

func TestCoordinatorWithMakeupAndSizing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collab := &fakeCollaborators{
		catalog:     testCatalog(),
		makeupLooks: []agents.MakeupLook{{Name: "Evening Glow", Confidence: 0.8}},
		riskScore:   0.2,
	}
	c := testCoordinator(collab, store, 0)

	rec, err := c.Execute(ctx, ShoppingIntent{
		UserID:       "u-1",
		Budget:       300,
		SelfieRef:    "selfie-123",
		Measurements: &agents.Measurements{HeightCM: 170, WaistCM: 70},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(rec.Makeup) != 1 || rec.Makeup[0].Name != "Evening Glow" {
		t.Errorf("makeup = %+v", rec.Makeup)
	}
	if len(rec.SizePredictions) == 0 {
		t.Fatal("no size predictions with measurements present")
	}
	// One prediction per distinct product, no duplicates across bundles.
	seen := map[string]bool{}
	for _, sp := range rec.SizePredictions {
		if seen[sp.ProductID] {
			t.Errorf("duplicate size prediction for %s", sp.ProductID)
		}
		seen[sp.ProductID] = true
	}
	if collab.sizeCallCount != len(rec.SizePredictions) {
		t.Errorf("size calls = %d, predictions = %d", collab.sizeCallCount, len(rec.SizePredictions))
	}
}

func TestCoordinatorRequiredAgentFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collab := &fakeCollaborators{outfitsErr: errors.New("catalog service down")}
	c := testCoordinator(collab, store, 0)

	_, err := c.Execute(ctx, ShoppingIntent{UserID: "u-1", Budget: 300})
	var failure *AgentFailureError
	if !errors.As(err, &failure) {
		t.Fatalf("Execute error = %v, want *AgentFailureError", err)
	}
	if failure.Agent != agents.TypeOutfitSearch {
		t.Errorf("failed agent = %s, want %s", failure.Agent, agents.TypeOutfitSearch)
	}
}

func TestCoordinatorFailureSetsErrorStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collab := &fakeCollaborators{catalog: outfits.Catalog{}} // nothing to combine
	c := testCoordinator(collab, store, 0)

	_, err := c.Execute(ctx, ShoppingIntent{UserID: "u-1", Budget: 300})
	if err == nil {
		t.Fatal("Execute succeeded with an empty catalog")
	}

	var found *Workflow
	// The workflow id is inside the wrapped error; recover it from the store
	// by scanning the only record written.
	for _, id := range storeWorkflowIDs(store) {
		wf, gerr := store.GetWorkflow(ctx, id)
		if gerr == nil {
			found = wf
		}
	}
	if found == nil {
		t.Fatal("no workflow record persisted")
	}
	if found.Status != StatusError {
		t.Errorf("status = %s, want %s", found.Status, StatusError)
	}
	if found.ErrorMessage == "" {
		t.Error("error message empty on failed workflow")
	}
}

func TestCoordinatorOptionalMakeupFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collab := &fakeCollaborators{
		catalog:   testCatalog(),
		makeupErr: errors.New("face match failed"),
		riskScore: 0.1,
	}
	c := testCoordinator(collab, store, 0)

	rec, err := c.Execute(ctx, ShoppingIntent{UserID: "u-1", Budget: 300, SelfieRef: "selfie-123"})
	if err != nil {
		t.Fatalf("Execute failed on optional stage: %v", err)
	}
	if len(rec.Makeup) != 0 {
		t.Errorf("makeup = %+v, want none after optional failure", rec.Makeup)
	}
	if len(rec.Outfits) == 0 {
		t.Error("outfits missing despite successful discovery")
	}
}

func TestCoordinatorHungMakeupDoesNotBlockWorkflow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collab := &fakeCollaborators{catalog: testCatalog(), makeupHang: true, riskScore: 0.1}
	c := testCoordinator(collab, store, 60*time.Millisecond)

	rec, err := c.Execute(ctx, ShoppingIntent{UserID: "u-1", Budget: 300, SelfieRef: "selfie-123"})
	if err != nil {
		t.Fatalf("Execute failed with a hung optional agent: %v", err)
	}
	if len(rec.Makeup) != 0 {
		t.Errorf("makeup = %+v, want none from a hung agent", rec.Makeup)
	}
	for _, a := range rec.Metadata.AgentsUsed {
		if a == string(agents.TypeMakeup) {
			t.Error("makeup listed in agents used without a result")
		}
	}
	wf, err := store.GetWorkflow(ctx, rec.WorkflowID)
	if err != nil {
		t.Fatalf("GetWorkflow failed: %v", err)
	}
	if wf.Status != StatusDelivered {
		t.Errorf("status = %s, want %s", wf.Status, StatusDelivered)
	}
}

func TestCoordinatorStageTimeout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collab := &fakeCollaborators{catalog: testCatalog(), outfitsHang: true}
	c := testCoordinator(collab, store, 40*time.Millisecond)

	_, err := c.Execute(ctx, ShoppingIntent{UserID: "u-1", Budget: 300})
	var timeout *AgentTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Execute error = %v, want *AgentTimeoutError", err)
	}
	if timeout.Agent != agents.TypeOutfitSearch {
		t.Errorf("timed-out agent = %s", timeout.Agent)
	}
}

func TestCoordinatorSizingTimeoutEnforced(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collab := &fakeCollaborators{catalog: testCatalog(), sizeHang: true, riskScore: 0.1}
	c := testCoordinator(collab, store, 40*time.Millisecond)

	_, err := c.Execute(ctx, ShoppingIntent{
		UserID:       "u-1",
		Budget:       300,
		Measurements: &agents.Measurements{HeightCM: 170},
	})
	var timeout *AgentTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Execute error = %v, want *AgentTimeoutError", err)
	}
	if timeout.Agent != agents.TypeSizePrediction {
		t.Errorf("timed-out agent = %s, want %s", timeout.Agent, agents.TypeSizePrediction)
	}

	var wferr *WorkflowError
	if !errors.As(err, &wferr) {
		t.Fatalf("Execute error = %v, want *WorkflowError", err)
	}
	wf, gerr := store.GetWorkflow(ctx, wferr.WorkflowID)
	if gerr != nil {
		t.Fatalf("GetWorkflow failed: %v", gerr)
	}
	if wf.Status != StatusError {
		t.Errorf("status = %s, want %s", wf.Status, StatusError)
	}
}

func TestCoordinatorSizingFailureFailsWorkflow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	collab := &fakeCollaborators{
		catalog:   testCatalog(),
		sizeErr:   errors.New("model unavailable"),
		riskScore: 0.1,
	}
	c := testCoordinator(collab, store, 0)

	_, err := c.Execute(ctx, ShoppingIntent{
		UserID:       "u-1",
		Budget:       300,
		Measurements: &agents.Measurements{HeightCM: 170},
	})
	var failure *AgentFailureError
	if !errors.As(err, &failure) {
		t.Fatalf("Execute error = %v, want *AgentFailureError", err)
	}
	if failure.Agent != agents.TypeSizePrediction {
		t.Errorf("failed agent = %s, want %s", failure.Agent, agents.TypeSizePrediction)
	}
}
