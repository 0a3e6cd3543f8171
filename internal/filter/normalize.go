package filter

import (
	"cmp"
	"slices"

	"github.com/roach88/worklens/internal/ir"
)

// Normalize returns a copy of spec with every value set sorted and de-duplicated.
// Builders emit predicates in the order of the normalized sets, so two specs that
// differ only in set order compile to identical SQL.
func Normalize(spec Spec) Spec {
	out := spec
	out.ProjectIDs = uniq(spec.ProjectIDs)
	out.IssueIDs = uniq(spec.IssueIDs)
	out.IssueKeys = uniq(spec.IssueKeys)
	out.IssueTypeIDs = uniq(spec.IssueTypeIDs)
	out.StatusIDs = uniq(spec.StatusIDs)
	out.PriorityIDs = uniq(spec.PriorityIDs)
	out.ReporterKeys = uniq(spec.ReporterKeys)
	out.WorklogAuthors = uniq(spec.WorklogAuthors)
	out.Labels = uniq(spec.Labels)
	out.EpicLinkIssueIDs = uniq(spec.EpicLinkIssueIDs)
	out.Resolutions.Values = uniq(spec.Resolutions.Values)
	out.Assignees.Values = uniq(spec.Assignees.Values)
	out.Components.Values = uniq(spec.Components.Values)
	out.AffectedVersions.Values = uniq(spec.AffectedVersions.Values)
	out.FixVersions.Values = uniq(spec.FixVersions.Values)
	return out
}

// uniq returns a sorted copy without duplicates. Nil stays nil.
func uniq[T cmp.Ordered](in []T) []T {
	if in == nil {
		return nil
	}
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// Fingerprint identifies the population a spec selects.
// Paging and ordering are excluded, so every page of one report shares a fingerprint.
func Fingerprint(spec Spec) (string, error) {
	return ir.FilterFingerprint(toIR(Normalize(spec)))
}

func toIR(spec Spec) ir.IRObject {
	obj := ir.IRObject{
		"project_ids": ir.Ints(spec.ProjectIDs),
	}

	putInts := func(key string, vals []int64) {
		if len(vals) > 0 {
			obj[key] = ir.Ints(vals)
		}
	}
	putStrings := func(key string, vals []string) {
		if len(vals) > 0 {
			obj[key] = ir.Strings(vals)
		}
	}
	putSelection := func(key string, s Selection) {
		if s.Mode() == ModeAny {
			return
		}
		obj[key] = ir.IRObject{
			"values":    ir.Strings(s.Values),
			"sentinels": ir.Strings(s.Sentinels.Names()),
		}
	}
	putRange := func(key string, r DateRange) {
		if r.IsZero() {
			return
		}
		rng := ir.IRObject{}
		if !r.From.IsZero() {
			rng["from"] = ir.NewIRTime(r.From)
		}
		if !r.To.IsZero() {
			rng["to"] = ir.NewIRTime(r.To)
		}
		obj[key] = rng
	}

	putInts("issue_ids", spec.IssueIDs)
	putStrings("issue_keys", spec.IssueKeys)
	putStrings("issue_type_ids", spec.IssueTypeIDs)
	putStrings("status_ids", spec.StatusIDs)
	putStrings("priority_ids", spec.PriorityIDs)
	putSelection("resolutions", spec.Resolutions)
	putSelection("assignees", spec.Assignees)
	putStrings("reporter_keys", spec.ReporterKeys)
	putStrings("worklog_authors", spec.WorklogAuthors)
	putSelection("components", spec.Components)
	putSelection("affected_versions", spec.AffectedVersions)
	putSelection("fix_versions", spec.FixVersions)
	putStrings("labels", spec.Labels)
	putInts("epic_link_issue_ids", spec.EpicLinkIssueIDs)
	if spec.EpicName != "" {
		obj["epic_name"] = ir.IRString(spec.EpicName)
	}
	putRange("issue_created", spec.IssueCreated)
	putRange("worklog", spec.Worklog)

	return obj
}
