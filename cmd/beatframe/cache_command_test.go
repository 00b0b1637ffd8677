package main

import (
	"encoding/json"
	"os"
	"testing"

	"beatframe/internal/beatcache"
)

func TestCacheListAndClear(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Beat cache is empty")

	if _, _, err := runCLI(t, env, "analyze", env.audioPath); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if _, _, err := runCLI(t, env, "analyze", env.audioPath, "--sensitivity", "2"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	entries := listCacheJSON(t, env)
	if len(entries) != 2 {
		t.Fatalf("expected 2 cached timelines, got %d", len(entries))
	}
	for _, e := range entries {
		if e.AudioPath != env.audioPath || e.Method != "energy" {
			t.Fatalf("unexpected entry %+v", e)
		}
	}

	out, _, err = runCLI(t, env, "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, shortKey(entries[0].Key))
	requireContains(t, out, "2 cached timelines")

	out, _, err = runCLI(t, env, "cache", "clear", shortKey(entries[0].Key))
	if err != nil {
		t.Fatalf("cache clear key: %v", err)
	}
	requireContains(t, out, "Removed "+shortKey(entries[0].Key))
	if remaining := listCacheJSON(t, env); len(remaining) != 1 || remaining[0].Key != entries[1].Key {
		t.Fatalf("unexpected remaining entries %+v", remaining)
	}

	if _, _, err := runCLI(t, env, "cache", "clear", "ffffffffffff"); err == nil {
		t.Fatal("expected unknown key to fail")
	}

	out, _, err = runCLI(t, env, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 1 cached timelines")
}

func TestCacheClearPurgeDeletesDatabase(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "analyze", env.audioPath); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	out, _, err := runCLI(t, env, "cache", "clear", "--purge")
	if err != nil {
		t.Fatalf("cache clear --purge: %v", err)
	}
	requireContains(t, out, "Deleted cache database")
	if _, err := os.Stat(env.cfg.Cache.Path); !os.IsNotExist(err) {
		t.Fatalf("expected database removed, stat err=%v", err)
	}

	out, _, err = runCLI(t, env, "cache", "clear", "--purge")
	if err != nil {
		t.Fatalf("second purge: %v", err)
	}
	requireContains(t, out, "No cache database")
}

func TestResolveCacheKey(t *testing.T) {
	entries := []beatcache.Entry{{Key: "abc123"}, {Key: "abd456"}}
	if key, err := resolveCacheKey(entries, "ABC"); err != nil || key != "abc123" {
		t.Fatalf("resolveCacheKey = %q, %v", key, err)
	}
	if _, err := resolveCacheKey(entries, "ab"); err == nil {
		t.Fatal("expected ambiguous prefix to fail")
	}
	if _, err := resolveCacheKey(entries, " "); err == nil {
		t.Fatal("expected empty prefix to fail")
	}
}

func listCacheJSON(t *testing.T, env *cliTestEnv) []beatcache.Entry {
	t.Helper()
	out, _, err := runCLI(t, env, "cache", "list", "--json")
	if err != nil {
		t.Fatalf("cache list --json: %v", err)
	}
	var entries []beatcache.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode cache list: %v\n%s", err, out)
	}
	return entries
}
