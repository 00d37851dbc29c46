package tickets

import (
	"context"
	"testing"

	"github.com/morezero/itflow-bridge/pkg/itflow"
)

const aggregatorTestPrefix = "tickets:aggregator_test"

// fakeReader answers GetTickets from a fixed map of bodies and records the codes asked.
type fakeReader struct {
	bodies map[string]string
	asked  []string
}

func (f *fakeReader) GetTickets(_ context.Context, code string) *itflow.Envelope {
	f.asked = append(f.asked, code)
	body, ok := f.bodies[code]
	if !ok {
		return itflow.Failure("HTTP 500: down")
	}
	return itflow.DecodeEnvelope([]byte(body))
}

func TestAggregate_DedupFirstSeenWins(t *testing.T) {
	reader := &fakeReader{bodies: map[string]string{
		"1":   `{"success":true,"data":[{"ticket_id":7,"ticket_subject":"first","ticket_status":"1","ticket_created_at":"2024-01-01 10:00:00"}]}`,
		"New": `{"success":true,"data":[{"ticket_id":7,"ticket_subject":"second","ticket_status":"1","ticket_created_at":"2024-01-01 10:00:00"}]}`,
	}}

	got := NewAggregator(reader).Aggregate(context.Background(), []string{"1", "New"}, func(raw string) bool { return raw == "1" })
	if got.Total != 1 || len(got.Records) != 1 {
		t.Fatalf("%s - expected 1 record, got %d", aggregatorTestPrefix, got.Total)
	}
	if got.Records[0].Subject != "first" {
		t.Errorf("%s - expected first occurrence to win, got %q", aggregatorTestPrefix, got.Records[0].Subject)
	}
	if len(reader.asked) != 2 || reader.asked[0] != "1" || reader.asked[1] != "New" {
		t.Errorf("%s - buckets asked out of order: %v", aggregatorTestPrefix, reader.asked)
	}
}

func TestAggregate_NewViewScenario(t *testing.T) {
	reader := &fakeReader{bodies: map[string]string{
		"1":   `{"success":true,"data":[{"ticket_id":42,"ticket_status":"1","ticket_created_at":"2024-03-01"}]}`,
		"New": `{"success":true,"data":[{"ticket_id":42,"ticket_status":"1","ticket_created_at":"2024-03-01"},{"ticket_id":43,"ticket_status":"2","ticket_created_at":"2024-03-02"}]}`,
	}}

	v, _ := LookupView(ViewNew)
	got := NewAggregator(reader).AggregateView(context.Background(), v)
	if got.Total != 1 || got.Records[0].ID != 42 {
		t.Fatalf("%s - expected only ticket 42, got %+v", aggregatorTestPrefix, got.Records)
	}
	if got.Records[0].CanonicalStatus != "New" {
		t.Errorf("%s - CanonicalStatus = %q", aggregatorTestPrefix, got.Records[0].CanonicalStatus)
	}
}

func TestAggregate_SortedNewestFirstStable(t *testing.T) {
	reader := &fakeReader{bodies: map[string]string{
		"2": `{"success":true,"data":[
			{"ticket_id":1,"ticket_status":"2","ticket_created_at":"2024-01-01 09:00:00"},
			{"ticket_id":2,"ticket_status":"2","ticket_created_at":"2024-05-01 09:00:00"},
			{"ticket_id":3,"ticket_status":"2","ticket_created_at":"2024-01-01 09:00:00"},
			{"ticket_id":4,"ticket_status":"2"}
		]}`,
	}}

	got := NewAggregator(reader).Aggregate(context.Background(), []string{"2"}, func(string) bool { return true })
	want := []int64{2, 1, 3, 4}
	if len(got.Records) != len(want) {
		t.Fatalf("%s - expected %d records, got %d", aggregatorTestPrefix, len(want), len(got.Records))
	}
	for i, id := range want {
		if got.Records[i].ID != id {
			t.Errorf("%s - position %d: id %d, want %d", aggregatorTestPrefix, i, got.Records[i].ID, id)
		}
	}
	for i := 1; i < len(got.Records); i++ {
		if got.Records[i-1].CreatedAt < got.Records[i].CreatedAt {
			t.Errorf("%s - records not in descending order at %d", aggregatorTestPrefix, i)
		}
	}
}

func TestAggregate_FailedBucketContributesNothing(t *testing.T) {
	reader := &fakeReader{bodies: map[string]string{
		"3": `{"success":true,"data":[{"ticket_id":9,"ticket_status":"3"}]}`,
	}}

	got := NewAggregator(reader).Aggregate(context.Background(), []string{"2", "3"}, func(string) bool { return true })
	if got.Total != 1 || got.Records[0].ID != 9 {
		t.Fatalf("%s - expected ticket 9 only, got %+v", aggregatorTestPrefix, got.Records)
	}
	if len(got.FailedCodes) != 1 || got.FailedCodes[0] != "2" {
		t.Errorf("%s - FailedCodes = %v", aggregatorTestPrefix, got.FailedCodes)
	}
}

func TestAggregate_NonArrayAndInvalidItems(t *testing.T) {
	reader := &fakeReader{bodies: map[string]string{
		"1": `{"success":true,"data":{"ticket_id":1}}`,
		"2": `{"success":true,"data":[{"ticket_id":0,"ticket_status":"2"},{"ticket_subject":"no id","ticket_status":"2"},{"ticket_id":"5","ticket_status":"2"}]}`,
		"3": `{"success":true}`,
	}}

	got := NewAggregator(reader).Aggregate(context.Background(), []string{"1", "2", "3"}, func(string) bool { return true })
	if got.Total != 1 || got.Records[0].ID != 5 {
		t.Fatalf("%s - expected only ticket 5, got %+v", aggregatorTestPrefix, got.Records)
	}
}

func TestAggregate_RejectedOccurrenceDoesNotBlockLater(t *testing.T) {
	reader := &fakeReader{bodies: map[string]string{
		"a": `{"success":true,"data":[{"ticket_id":8,"ticket_status":"9"}]}`,
		"b": `{"success":true,"data":[{"ticket_id":8,"ticket_status":"2"}]}`,
	}}

	got := NewAggregator(reader).Aggregate(context.Background(), []string{"a", "b"}, func(raw string) bool { return raw == "2" })
	if got.Total != 1 || got.Records[0].RawStatus != "2" {
		t.Fatalf("%s - expected the accepted occurrence, got %+v", aggregatorTestPrefix, got.Records)
	}
}

func TestAggregate_EmptyCodes(t *testing.T) {
	got := NewAggregator(&fakeReader{}).Aggregate(context.Background(), nil, func(string) bool { return true })
	if got.Total != 0 || got.Records == nil {
		t.Errorf("%s - expected empty non-nil result, got %+v", aggregatorTestPrefix, got)
	}
}

// The open view admits only its listed statuses. A Waiting ticket ("6") or
// any other code a bucket happens to return is dropped, not treated as open.
func TestAggregate_OpenViewDropsUnlistedStatuses(t *testing.T) {
	reader := &fakeReader{bodies: map[string]string{
		"2": `{"success":true,"data":[` +
			`{"ticket_id":1,"ticket_status":"2","ticket_created_at":"2024-03-01"},` +
			`{"ticket_id":2,"ticket_status":"6","ticket_created_at":"2024-03-02"},` +
			`{"ticket_id":3,"ticket_status":"Waiting","ticket_created_at":"2024-03-03"},` +
			`{"ticket_id":4,"ticket_status":"8","ticket_created_at":"2024-03-04"}]}`,
	}}

	v, _ := LookupView(ViewOpen)
	got := NewAggregator(reader).AggregateView(context.Background(), v)
	if got.Total != 1 || got.Records[0].ID != 1 {
		t.Fatalf("%s - expected only ticket 1, got %+v", aggregatorTestPrefix, got.Records)
	}
}
