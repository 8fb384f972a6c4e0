package registry

import "github.com/nmos-cm/connection-core/internal/apierr"

// BulkEntry is one element of a bulk PATCH request: the target
// transceiver id and its staged-patch fragment.
type BulkEntry struct {
	ID     string          `json:"id" mapstructure:"id"`
	Params StagedPatchBody `json:"params" mapstructure:"params"`
}

// BulkResult is one element of a bulk PATCH response.
type BulkResult struct {
	ID   string `json:"id"`
	Code int    `json:"code"`
}

// Dispatch runs PatchTransceiver independently for each entry. Entries
// are not atomic with respect to one another: a failure on one id never
// prevents the others from being attempted, so partial success across
// the batch is expected and normal.
func (r *Registry) Dispatch(version APIVersion, kind string, entries []BulkEntry) []BulkResult {
	results := make([]BulkResult, len(entries))
	for i, e := range entries {
		res, err := r.PatchTransceiver(version, kind, e.ID, e.Params)
		if err != nil {
			code := 500
			var apiErr *apierr.APIError
			if ae, ok := err.(*apierr.APIError); ok {
				apiErr = ae
				code = apierr.CodeOf(apiErr.Kind)
			}
			results[i] = BulkResult{ID: e.ID, Code: code}
			continue
		}
		results[i] = BulkResult{ID: e.ID, Code: res.Status}
	}
	return results
}
