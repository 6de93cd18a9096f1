package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/NetPortal/internal/pkg/cache"
)

const (
	// DefaultMaxRetries is how often a failed mail or archive job is retried.
	DefaultMaxRetries = 3
	// JobTTL bounds how long a job record outlives its last update.
	JobTTL = 24 * time.Hour

	defaultConcurrency = 3
	claimTimeout       = time.Second
	promoteInterval    = time.Second
)

// keyspace names the Redis keys of one queue. Jobs waiting for a retry sit
// in a sorted set scored by their due time.
type keyspace string

const portalJobs keyspace = "netportal:jobs"

func (k keyspace) job(id string) string { return string(k) + ":job:" + id }
func (k keyspace) pending() string      { return string(k) + ":pending" }
func (k keyspace) active() string       { return string(k) + ":active" }
func (k keyspace) delayed() string      { return string(k) + ":delayed" }
func (k keyspace) counters() string     { return string(k) + ":counters" }

// handler executes one job type.
type handler func(q *Queue, ctx context.Context, job *Job) error

func handlerFor(t JobType) (handler, bool) {
	switch t {
	case JobTypeSendEmail:
		return (*Queue).processSendEmailJob, true
	case JobTypeGroupEmail:
		return (*Queue).processGroupEmailJob, true
	case JobTypeArchiveInvoice:
		return (*Queue).processArchiveInvoiceJob, true
	}
	return nil, false
}

// retryBackoff is the wait before attempt n of a failed job.
func retryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * time.Minute
}

// Queue runs portal background jobs (customer mail, group mail fan-out and
// invoice archiving) on Redis lists.
type Queue struct {
	client      redis.UniversalClient
	keys        keyspace
	concurrency int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	recipients RecipientLister
	sendMail   MailSender
	archiver   InvoiceArchiver
}

// NewQueue creates a queue on the shared cache client.
func NewQueue(workers int) *Queue {
	return newQueueWithClient(cache.GetClient(), workers)
}

func newQueueWithClient(client redis.UniversalClient, workers int) *Queue {
	if workers <= 0 {
		workers = defaultConcurrency
	}
	return &Queue{
		client:      client,
		keys:        portalJobs,
		concurrency: workers,
		recipients:  defaultRecipients,
		sendMail:    defaultMailSender,
	}
}

// SetRecipients replaces the lookup of group email recipients.
func (q *Queue) SetRecipients(fn RecipientLister) { q.recipients = fn }

// SetMailSender replaces the SMTP delivery of send_email jobs.
func (q *Queue) SetMailSender(fn MailSender) { q.sendMail = fn }

// SetArchiver sets the S3 target of archive_invoice jobs.
func (q *Queue) SetArchiver(a InvoiceArchiver) { q.archiver = a }

// Start launches the workers and the retry promoter.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.running = true

	log.Infof("[JobQueue] Starting %d workers on %s", q.concurrency, q.keys)
	for n := 1; n <= q.concurrency; n++ {
		q.wg.Add(1)
		go q.work(ctx, n)
	}
	q.wg.Add(1)
	go q.promoteLoop(ctx)
}

// Stop cancels the workers and waits for running jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return
	}
	q.cancel()
	q.wg.Wait()
	q.running = false
	log.Info("[JobQueue] Workers stopped")
}

func (q *Queue) work(ctx context.Context, n int) {
	defer q.wg.Done()
	for ctx.Err() == nil {
		job, err := q.claim(ctx)
		switch {
		case err == nil:
			q.run(context.WithoutCancel(ctx), job)
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
		default:
			log.Errorf("[JobQueue] Worker %d cannot claim a job: %v", n, err)
			sleepCtx(ctx, time.Second)
		}
	}
}

func (q *Queue) promoteLoop(ctx context.Context) {
	defer q.wg.Done()
	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := q.promoteDue(ctx, time.Now()); err != nil && ctx.Err() == nil {
				log.Errorf("[JobQueue] Promoting delayed jobs failed: %v", err)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// EnqueueJob stores a new pending job and appends it to the queue.
func (q *Queue) EnqueueJob(jobType JobType, payload map[string]interface{}) (*Job, error) {
	if _, known := handlerFor(jobType); !known {
		return nil, fmt.Errorf("unknown job type %q", jobType)
	}

	now := time.Now()
	job := &Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: DefaultMaxRetries,
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}

	ctx := context.Background()
	_, err = q.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, q.keys.job(job.ID), data, JobTTL)
		p.LPush(ctx, q.keys.pending(), job.ID)
		p.HIncrBy(ctx, q.keys.counters(), string(JobStatusPending), 1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue %s job: %w", jobType, err)
	}
	log.Debugf("[JobQueue] Queued %s job %s", job.Type, job.ID)
	return job, nil
}

// claim moves the oldest pending id to the active list and loads its job.
// Ids whose record expired or is unreadable are dropped.
func (q *Queue) claim(ctx context.Context) (*Job, error) {
	id, err := q.client.BLMove(ctx, q.keys.pending(), q.keys.active(), "RIGHT", "LEFT", claimTimeout).Result()
	if err != nil {
		return nil, err
	}
	job, err := q.load(ctx, id)
	if err != nil {
		q.client.LRem(ctx, q.keys.active(), 1, id)
		return nil, fmt.Errorf("claim %s: %w", id, err)
	}
	return job, nil
}

func (q *Queue) load(ctx context.Context, id string) (*Job, error) {
	raw, err := q.client.Get(ctx, q.keys.job(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func (q *Queue) save(ctx context.Context, job *Job) {
	data, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Cannot encode job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, q.keys.job(job.ID), data, JobTTL).Err(); err != nil {
		log.Errorf("[JobQueue] Cannot store job %s: %v", job.ID, err)
	}
}

// execute dispatches job to the handler of its type.
func (q *Queue) execute(ctx context.Context, job *Job) error {
	h, ok := handlerFor(job.Type)
	if !ok {
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	return h(q, ctx, job)
}

// run executes a claimed job and settles it: completed jobs are deleted,
// failed ones are delayed for a retry or kept as failed until they expire.
func (q *Queue) run(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.save(ctx, job)

	err := q.execute(ctx, job)
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.keys.active(), 1, job.ID)

	switch {
	case err == nil:
		job.MarkAsCompleted()
		pipe.Del(ctx, q.keys.job(job.ID))
		pipe.HIncrBy(ctx, q.keys.counters(), string(JobStatusCompleted), 1)
		log.Infof("[JobQueue] %s job %s done", job.Type, job.ID)
	default:
		job.MarkAsFailed(err.Error())
		if job.IsRetryable() {
			due := time.Now().Add(retryBackoff(job.RetryCount))
			job.MarkAsRetrying()
			pipe.ZAdd(ctx, q.keys.delayed(), redis.Z{Score: float64(due.Unix()), Member: job.ID})
			log.Warnf("[JobQueue] %s job %s failed (attempt %d/%d), retry at %s: %v",
				job.Type, job.ID, job.RetryCount, job.MaxRetries, due.Format(time.RFC3339), err)
		} else {
			pipe.HIncrBy(ctx, q.keys.counters(), string(JobStatusFailed), 1)
			log.Errorf("[JobQueue] %s job %s gave up after %d attempts: %v", job.Type, job.ID, job.RetryCount, err)
		}
		if data, merr := json.Marshal(job); merr == nil {
			pipe.Set(ctx, q.keys.job(job.ID), data, JobTTL)
		}
	}

	if _, perr := pipe.Exec(ctx); perr != nil {
		log.Errorf("[JobQueue] Cannot settle job %s: %v", job.ID, perr)
	}
}

// promoteDue moves delayed jobs whose retry time has come back to pending.
func (q *Queue) promoteDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := q.client.ZRangeByScore(ctx, q.keys.delayed(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil || len(ids) == 0 {
		return 0, err
	}

	moved := 0
	for _, id := range ids {
		// ZRem decides which promoter owns the id when several instances run.
		removed, err := q.client.ZRem(ctx, q.keys.delayed(), id).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.keys.pending(), id).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// startedAt is when a job entered processing, falling back to its last
// update for records written without a processing time.
func startedAt(job *Job) time.Time {
	switch {
	case job.ProcessedAt != nil && !job.ProcessedAt.IsZero():
		return *job.ProcessedAt
	case !job.UpdatedAt.IsZero():
		return job.UpdatedAt
	default:
		return job.CreatedAt
	}
}

// RecoverStuckJobs requeues active jobs older than maxAge, which are left
// behind by a worker that died mid-job. The manager runs it on a schedule.
func (q *Queue) RecoverStuckJobs(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := q.client.LRange(ctx, q.keys.active(), 0, -1).Result()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	recovered := 0
	for _, id := range ids {
		job, err := q.load(ctx, id)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Warnf("[JobQueue] Dropping unreadable active job %s: %v", id, err)
			}
			q.client.LRem(ctx, q.keys.active(), 1, id)
			continue
		}
		if job.Status != JobStatusProcessing {
			continue
		}
		age := now.Sub(startedAt(job))
		if age <= maxAge {
			continue
		}

		job.Status = JobStatusPending
		job.ErrorMsg = fmt.Sprintf("requeued after %s in processing", age.Round(time.Second))
		job.UpdatedAt = now
		q.save(ctx, job)
		_, err = q.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.LRem(ctx, q.keys.active(), 1, id)
			p.RPush(ctx, q.keys.pending(), id)
			return nil
		})
		if err != nil {
			return recovered, err
		}
		log.Warnf("[JobQueue] Requeued stuck %s job %s", job.Type, id)
		recovered++
	}
	return recovered, nil
}

// GetJob returns a stored job. Completed jobs are deleted and return redis.Nil.
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return q.load(ctx, jobID)
}

// GetJobStats returns the running totals of queued, completed and
// permanently failed jobs.
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	raw, err := q.client.HGetAll(ctx, q.keys.counters()).Result()
	if err != nil {
		return nil, err
	}
	stats := make(map[JobStatus]int64, len(raw))
	for status, count := range raw {
		if n, err := strconv.ParseInt(count, 10, 64); err == nil {
			stats[JobStatus(status)] = n
		}
	}
	return stats, nil
}

// GetQueueSize returns the number of jobs waiting for a worker.
func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.keys.pending()).Result()
}

// GetProcessingSize returns the number of jobs a worker holds.
func (q *Queue) GetProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.keys.active()).Result()
}

// GetDelayedSize returns the number of failed jobs waiting for a retry.
func (q *Queue) GetDelayedSize(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.keys.delayed()).Result()
}
