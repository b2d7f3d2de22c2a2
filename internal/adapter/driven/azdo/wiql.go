package azdo

import (
	"strings"

	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// Fields requested for every work item.
var workItemFields = []string{
	"System.Id",
	"System.Title",
	"System.WorkItemType",
	"System.State",
	"System.AssignedTo",
	"System.CreatedDate",
	"System.ChangedDate",
	"Microsoft.VSTS.Common.Priority",
	"System.AreaPath",
	"System.IterationPath",
	"System.Tags",
}

// quote renders s as a WIQL string literal, doubling embedded single quotes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, quote(v))
	}
	return strings.Join(quoted, ", ")
}

// memberIdentities returns the identities to match in [System.AssignedTo]:
// each member's email, name and aliases, deduplicated case-insensitively in
// roster order. The field accepts both unique names and display names.
func memberIdentities(q driven.WorkItemQuery) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, v)
	}
	for _, m := range q.Members {
		add(m.Email)
		add(m.Name)
		for _, alias := range m.Aliases {
			add(alias)
		}
	}
	return out
}

// buildTeamQuery returns the WIQL selecting a roster's work items, or "" when
// the query can match nothing (no members and unassigned items excluded).
func buildTeamQuery(q driven.WorkItemQuery) string {
	identities := memberIdentities(q)

	var assignee []string
	if len(identities) > 0 {
		assignee = append(assignee, "[System.AssignedTo] IN ("+quoteList(identities)+")")
	}
	if q.IncludeUnassigned {
		assignee = append(assignee, "[System.AssignedTo] = ''")
	}
	if len(assignee) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = @project AND (")
	b.WriteString(strings.Join(assignee, " OR "))
	b.WriteString(")")
	if q.ActiveOnly && len(q.CompletedStates) > 0 {
		b.WriteString(" AND [System.State] NOT IN (" + quoteList(q.CompletedStates) + ")")
	}
	b.WriteString(" ORDER BY [System.ChangedDate] DESC")
	return b.String()
}

// buildListQuery returns the WIQL for an ad-hoc listing.
func buildListQuery(f driven.WorkItemFilter) string {
	conditions := []string{"[System.TeamProject] = @project"}

	switch {
	case strings.EqualFold(f.AssignedTo, "@me"):
		conditions = append(conditions, "[System.AssignedTo] = @me")
	case f.AssignedTo != "":
		conditions = append(conditions, "[System.AssignedTo] = "+quote(f.AssignedTo))
	}
	if f.State != "" {
		conditions = append(conditions, "[System.State] = "+quote(f.State))
	}
	if f.Type != "" {
		conditions = append(conditions, "[System.WorkItemType] = "+quote(f.Type))
	}

	return "SELECT [System.Id] FROM WorkItems WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY [System.ChangedDate] DESC"
}
