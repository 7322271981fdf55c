package entities

// BuildRef points to one build of a job
type BuildRef struct {
	Job    string
	Number int
}

// BuildRange is a half-open range of build numbers [Start, End)
type BuildRange struct {
	Start int
	End   int
}

// Contains reports whether build falls inside the range
func (r BuildRange) Contains(build int) bool {
	return r.Start <= build && build < r.End
}

// FingerprintUsage lists the builds of a job that used a file
type FingerprintUsage struct {
	Job    string
	Ranges []BuildRange
}

// FingerprintRecord is the build server's record for one content hash
type FingerprintRecord struct {
	Hash     string
	FileName string
	Original *BuildRef
	Usage    []FingerprintUsage
}

// ValidateForBuild reports whether the record associates fileName with the
// given job and build number
func (f *FingerprintRecord) ValidateForBuild(fileName, job string, build int) bool {
	if f.Original != nil && f.Original.Job == job && f.Original.Number == build {
		return true
	}

	if f.FileName != fileName {
		return false
	}

	for _, usage := range f.Usage {
		if usage.Job != job {
			continue
		}
		for _, r := range usage.Ranges {
			if r.Contains(build) {
				return true
			}
		}
	}

	return false
}
