package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

var knownLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong
// with it. Errors block saving; warnings are informational.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Stats.TechKeywords = trimList(out.Stats.TechKeywords)
	out.App.LogLevel = strings.ToLower(strings.TrimSpace(out.App.LogLevel))
	out.Polling.Schedule = strings.TrimSpace(out.Polling.Schedule)
	out.Ingest.SearchURL = strings.TrimSpace(out.Ingest.SearchURL)
	out.Ingest.ItemURL = strings.TrimSpace(out.Ingest.ItemURL)

	// app
	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if out.App.LogLevel != "" && !knownLevels[out.App.LogLevel] {
		res.addWarn("app.log_level %q is unknown; info will be used.", out.App.LogLevel)
	}

	// ingest
	checkURL := func(name, raw string) {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			res.addErr("%s must be an absolute http(s) URL", name)
		}
	}
	checkURL("ingest.search_url", out.Ingest.SearchURL)
	checkURL("ingest.item_url", out.Ingest.ItemURL)

	if out.Ingest.ThreadLimit <= 0 {
		res.addErr("ingest.thread_limit must be > 0")
	} else if out.Ingest.ThreadLimit > 12 {
		res.addWarn("ingest.thread_limit is %d; runs will walk a year of threads.", out.Ingest.ThreadLimit)
	}
	if out.Ingest.BatchSize <= 0 || out.Ingest.BatchSize > 100 {
		res.addErr("ingest.batch_size must be 1..100")
	}
	if out.Ingest.RequestTimeoutSeconds <= 0 {
		res.addErr("ingest.request_timeout_seconds must be > 0")
	}
	if out.Ingest.RequestsPerSecond < 0 {
		res.addErr("ingest.requests_per_second must be >= 0")
	} else if out.Ingest.RequestsPerSecond == 0 {
		res.addWarn("ingest.requests_per_second is 0; requests are not rate limited.")
	} else if out.Ingest.Burst <= 0 {
		res.addErr("ingest.burst must be > 0 when requests_per_second is set")
	}

	// polling
	if out.Polling.Enabled {
		if out.Polling.Schedule == "" {
			res.addErr("polling.schedule is required when polling.enabled=true")
		} else if _, err := cron.ParseStandard(out.Polling.Schedule); err != nil {
			res.addErr("polling.schedule %q is invalid: %v", out.Polling.Schedule, err)
		}
	}

	// stats
	if out.Stats.TopN < 0 {
		res.addErr("stats.top_n must be >= 0")
	}
	if len(out.Stats.TechKeywords) == 0 {
		res.addWarn("stats.tech_keywords is empty; the keyword chart will be blank.")
	}

	return out, res
}
