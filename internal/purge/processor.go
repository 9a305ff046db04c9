package purge

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"mastogone/internal/filter"
	"mastogone/internal/mastoclient"
	"mastogone/internal/metrics"
	"mastogone/internal/model"
	"mastogone/internal/store"
	"mastogone/internal/util"
)

// Processor drives one scan-and-act run: authenticate, paginate the account's
// history, filter every status, then log the candidates and, outside preview
// mode, back them up and delete them under the cooldown policy.
type Processor struct {
	Client     mastoclient.Client
	Rules      *filter.Rules
	Policy     CooldownPolicy
	Preview    bool
	PageSize   int
	LogPath    string
	BackupPath string
	// Optional local audit trail; nil disables it.
	Archive *store.Archive
}

// Run executes the full pipeline and returns counters. An authentication
// failure yields a zero result, not an error; file I/O failures come back
// as *FileError.
func (p *Processor) Run(ctx context.Context) (model.RunResult, error) {
	var res model.RunResult

	me, err := p.Client.VerifyCredentials(ctx)
	if err != nil {
		log.Error().Err(err).Msg("login failed")
		return res, nil
	}

	candidates, pages := p.collect(ctx, me.ID)
	res.Scanned = pages * p.PageSize
	res.Matched = len(candidates)
	log.Info().Int("matched", res.Matched).Int("pages", pages).Msg("scan complete")
	if res.Matched == 0 {
		return res, nil
	}

	logFile, err := openAppend(p.LogPath)
	if err != nil {
		return res, err
	}
	defer logFile.Close()

	var backup *appendFile
	if !p.Preview {
		backup, err = openAppend(p.BackupPath)
		if err != nil {
			return res, err
		}
		defer backup.Close()
	}

	for _, c := range candidates {
		text := util.Flatten(util.StripTags(c.Status.Content))
		if err := logFile.writeLogEntry(c.CreatedAt, text); err != nil {
			return res, err
		}
		if p.Preview {
			continue
		}
		if err := backup.writeBackupRecord(c); err != nil {
			return res, err
		}
		p.deleteOne(ctx, c, text, &res)
	}
	return res, nil
}

// collect walks the history and returns the qualifying candidates in
// discovery order (newest first) plus the number of pages fetched. A
// transport error ends pagination; the run proceeds with what was collected.
func (p *Processor) collect(ctx context.Context, accountID string) ([]model.Candidate, int) {
	pg := NewPaginator(p.Client, accountID, p.PageSize)
	var out []model.Candidate
	for {
		page, err := pg.Next(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("pagination stopped early")
			break
		}
		if page == nil {
			break
		}
		metrics.PagesFetched.Inc()
		for _, st := range page {
			createdAt := st.CreatedAt.UTC()
			text := util.StripTags(st.Content)
			if p.Rules.Matches(st, createdAt, text) {
				out = append(out, model.Candidate{ID: st.ID, Status: st, CreatedAt: createdAt})
			}
		}
	}
	metrics.PostsMatched.Add(float64(len(out)))
	return out, pg.Pages()
}

// deleteOne attempts a single deletion, applying the reactive 429
// pause-and-retry-once policy and the periodic batch cooldown.
func (p *Processor) deleteOne(ctx context.Context, c model.Candidate, text string, res *model.RunResult) {
	err := p.Client.DeleteStatus(ctx, c.ID)
	if err != nil && mastoclient.IsRateLimit(err) {
		log.Warn().Str("id", c.ID).Dur("cooldown", p.Policy.Cooldown).Msg("rate limited, pausing before retry")
		metrics.IncPause("http429")
		p.Policy.Pause()
		err = p.Client.DeleteStatus(ctx, c.ID)
	}
	if err != nil {
		log.Warn().Err(err).Str("id", c.ID).Msg("delete failed")
		res.Failed++
		metrics.DeleteFailures.Inc()
		p.archiveFailure(ctx, c.ID, err)
		return
	}
	res.Deleted++
	metrics.PostsDeleted.Inc()
	log.Info().Str("id", c.ID).Msg("deleted status")
	p.archiveDeleted(ctx, c, text)
	if p.Policy.ShouldPause(res.Deleted) {
		log.Warn().Int("deleted", res.Deleted).Dur("cooldown", p.Policy.Cooldown).Msg("delete batch budget exhausted, pausing")
		metrics.IncPause("batch")
		p.Policy.Pause()
	}
}

func (p *Processor) archiveDeleted(ctx context.Context, c model.Candidate, text string) {
	if p.Archive == nil {
		return
	}
	if err := p.Archive.RecordDeleted(ctx, c.Status, text, time.Now().UTC()); err != nil {
		log.Warn().Err(err).Str("id", c.ID).Msg("archive write failed")
	}
}

func (p *Processor) archiveFailure(ctx context.Context, id string, cause error) {
	if p.Archive == nil {
		return
	}
	code := 0
	var ae *mastoclient.APIError
	if errors.As(cause, &ae) {
		code = ae.StatusCode
	}
	if err := p.Archive.RecordFailure(ctx, id, code, time.Now().UTC()); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("archive write failed")
	}
}
