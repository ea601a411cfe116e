package domain

// Release holds everything the pipeline learns about the release in progress.
// PreviousVersion is filled in by the descriptor update and read by the
// changelog step; nothing else writes it.
type Release struct {
	Version         *Version
	PreviousVersion string
	TagPrefix       string
	Changelog       string
}

// TagName returns the tag created for the new version.
func (r *Release) TagName() string {
	return r.Version.Tag(r.TagPrefix)
}

// PreviousTagName returns the tag of the version recorded before the bump.
func (r *Release) PreviousTagName() string {
	if r.PreviousVersion == "" {
		return ""
	}
	return r.TagPrefix + r.PreviousVersion
}

// Range returns the commit range "<previous>...<new>" in tag form.
func (r *Release) Range() string {
	return r.PreviousTagName() + "..." + r.TagName()
}
