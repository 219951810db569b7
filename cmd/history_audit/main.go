// Command history_audit checks that every project's version history is gap
// free and that each edit has its payload row.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/yungbote/leancanvas-backend/internal/app"
	types "github.com/yungbote/leancanvas-backend/internal/domain"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
)

type idList []int64

func (l *idList) String() string {
	parts := make([]string, 0, len(*l))
	for _, id := range *l {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid project id %q", v)
	}
	*l = append(*l, id)
	return nil
}

func main() {
	var projects idList
	var limit int
	configPath := flag.String("config", "config.yaml", "optional YAML config file")
	flag.Var(&projects, "project", "project_id to audit (repeatable)")
	flag.IntVar(&limit, "limit", 0, "limit number of projects audited")
	flag.Parse()

	ctx := context.Background()
	application, err := app.New(ctx, *configPath)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	dbc := dbctx.Context{Ctx: ctx}

	var rows []*types.Project
	if len(projects) > 0 {
		rows, err = application.Repos.Project.GetByIDs(dbc, projects)
	} else {
		err = application.DB.WithContext(ctx).Order("id").Find(&rows).Error
	}
	if err != nil {
		fmt.Printf("load projects: %v\n", err)
		os.Exit(1)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	broken := 0
	for _, p := range rows {
		if p == nil {
			continue
		}
		problems, err := auditProject(dbc, application.Repos, p.ID)
		if err != nil {
			fmt.Printf("project %d: %v\n", p.ID, err)
			broken++
			continue
		}
		for _, msg := range problems {
			fmt.Printf("project %d: %s\n", p.ID, msg)
		}
		if len(problems) > 0 {
			broken++
		}
	}
	fmt.Printf("audited=%d broken=%d\n", len(rows), broken)
	if broken > 0 {
		os.Exit(2)
	}
}

func auditProject(dbc dbctx.Context, repos app.Repos, projectID int64) ([]string, error) {
	entries, err := repos.EditHistory.ListHistory(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []string{"no versions"}, nil
	}
	var problems []string

	versions := make([]int, 0, len(entries))
	editIDs := make([]int64, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, e.Version)
		editIDs = append(editIDs, e.EditID)
	}
	sort.Ints(versions)
	for i, v := range versions {
		if v != i+1 {
			problems = append(problems, fmt.Sprintf("version %d found at position %d", v, i+1))
			break
		}
	}

	n, err := repos.Details.CountByEditIDs(dbc, editIDs)
	if err != nil {
		return nil, err
	}
	if n != int64(len(editIDs)) {
		problems = append(problems, fmt.Sprintf("%d edits but %d payload rows", len(editIDs), n))
	}
	return problems, nil
}
