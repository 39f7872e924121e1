package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/profilewizard/auth"
	"github.com/kbukum/profilewizard/catalog"
	"github.com/kbukum/profilewizard/config"
	"github.com/kbukum/profilewizard/logger"
	"github.com/kbukum/profilewizard/redis"
	"github.com/kbukum/profilewizard/session"
	"github.com/kbukum/profilewizard/snapshot"
)

const defaultSkillLevel = 3

func tokenSource(cfg *config.AppConfig) auth.TokenSource {
	return auth.ValidTokens(auth.StaticToken(cfg.Auth.Token), auth.WithLeeway(cfg.Auth.Leeway))
}

// openDraftStore opens the configured draft store for one-shot commands
// that run without the component lifecycle. The close func releases the
// redis connection, if any.
func openDraftStore(ctx context.Context, cfg *config.AppConfig) (snapshot.Store[session.Draft], func() error, error) {
	noop := func() error { return nil }
	if cfg.Autosave.Backend != config.BackendRedis {
		store, err := session.OpenStore(cfg.Autosave, nil)
		return store, noop, err
	}

	rc, err := redis.New(cfg.Redis, logger.Get("redis"))
	if err != nil {
		return nil, noop, err
	}
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, noop, fmt.Errorf("redis: %w", err)
	}
	store, err := session.OpenStore(cfg.Autosave, rc)
	if err != nil {
		_ = rc.Close()
		return nil, noop, err
	}
	return store, rc.Close, nil
}

// loadProfileItems fetches every saved profile section.
func loadProfileItems(ctx context.Context, cat *catalog.Client) (map[catalog.ItemKind][]catalog.ProfileItem, error) {
	out := make(map[catalog.ItemKind][]catalog.ProfileItem, len(catalog.Kinds()))
	for _, kind := range catalog.Kinds() {
		items, err := cat.ListProfileItems(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}
		out[kind] = items
	}
	return out, nil
}

// draftFromItems seeds a new draft from the profile the user already has
// on the server. Items the API kept but the wizard would reject stay in the
// draft so the user sees them flagged by Missing.
func draftFromItems(items map[catalog.ItemKind][]catalog.ProfileItem, now time.Time) session.Draft {
	var d session.Draft
	for _, it := range items[catalog.KindSkills] {
		d.Skills = append(d.Skills, session.Skill{
			Name:  it.Title,
			Level: defaultSkillLevel,
			Years: it.Years,
		})
	}
	for _, it := range items[catalog.KindExperience] {
		d.Experience = append(d.Experience, session.Experience{
			Company:   it.Title,
			Role:      it.Detail,
			StartYear: now.Year() - it.Years,
			Current:   true,
		})
	}
	for _, it := range items[catalog.KindEducation] {
		d.Education = append(d.Education, session.Education{
			School: it.Title,
			Degree: it.Detail,
		})
	}
	return d
}
