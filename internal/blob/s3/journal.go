package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"path"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// flushThreshold is the buffered line count at which Append flushes on its
// own, independent of the periodic Flush.
const flushThreshold = 500

// Journal implements domain.OpportunityJournal by buffering JSONL records
// in memory and uploading each batch as one date-keyed object.
type Journal struct {
	client *Client
	prefix string

	mu  sync.Mutex
	buf bytes.Buffer
	n   int
}

// NewJournal creates a Journal writing under the given key prefix.
func NewJournal(client *Client, prefix string) *Journal {
	return &Journal{client: client, prefix: prefix}
}

// journalRecord is one JSONL line. Amounts travel as decimal strings.
type journalRecord struct {
	ID           string    `json:"id"`
	Signature    string    `json:"signature"`
	Path         string    `json:"path"`
	Hops         int       `json:"hops"`
	InputAmount  string    `json:"input_amount"`
	NetProfit    string    `json:"net_profit"`
	ProfitBps    int64     `json:"profit_bps"`
	Confidence   float64   `json:"confidence"`
	FinalScore   float64   `json:"final_score"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Append buffers one opportunity. The batch is uploaded when it reaches the
// flush threshold.
func (j *Journal) Append(ctx context.Context, opp domain.Opportunity) error {
	rec := journalRecord{
		ID:           opp.ID,
		Signature:    opp.Signature.Hex(),
		Path:         opp.Cycle.String(),
		Hops:         opp.Cycle.Hops(),
		InputAmount:  amountString(opp.InputAmount),
		NetProfit:    amountString(opp.NetProfit),
		ProfitBps:    opp.ProfitBps,
		Confidence:   opp.Confidence,
		FinalScore:   opp.FinalScore,
		DiscoveredAt: opp.DiscoveredAt,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("s3blob: marshal journal record %s: %w", opp.ID, err)
	}

	j.mu.Lock()
	j.buf.Write(line)
	j.buf.WriteByte('\n')
	j.n++
	full := j.n >= flushThreshold
	j.mu.Unlock()

	if full {
		return j.Flush(ctx)
	}
	return nil
}

// Flush uploads the buffered batch as a single JSONL object and resets the
// buffer. A flush with nothing buffered is a no-op.
func (j *Journal) Flush(ctx context.Context) error {
	j.mu.Lock()
	if j.n == 0 {
		j.mu.Unlock()
		return nil
	}
	payload := make([]byte, j.buf.Len())
	copy(payload, j.buf.Bytes())
	j.buf.Reset()
	j.n = 0
	j.mu.Unlock()

	key := j.objectKey(time.Now().UTC())
	_, err := j.client.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(j.client.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("s3blob: put journal batch %s: %w", key, err)
	}
	return nil
}

// objectKey builds a date-partitioned key with a random suffix so
// concurrent writers never collide.
func (j *Journal) objectKey(now time.Time) string {
	name := fmt.Sprintf("opportunities-%s-%s.jsonl",
		now.Format("150405"), uuid.NewString()[:8])
	return path.Join(j.prefix, now.Format("2006-01-02"), name)
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

var _ domain.OpportunityJournal = (*Journal)(nil)
