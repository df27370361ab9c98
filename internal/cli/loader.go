package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"repoql/internal/ir"
)

// Declarations holds the record and repository declarations loaded from
// a directory of CUE files.
type Declarations struct {
	Records      []ir.RecordSpec     `json:"records"`
	Repositories []ir.RepositorySpec `json:"repositories"`
	FileCount    int                 `json:"-"`
}

// Record returns the record spec with the given name.
func (d *Declarations) Record(name string) (ir.RecordSpec, bool) {
	for _, rec := range d.Records {
		if rec.Name == name {
			return rec, true
		}
	}
	return ir.RecordSpec{}, false
}

// Repository returns the repository spec with the given name.
func (d *Declarations) Repository(name string) (ir.RepositorySpec, bool) {
	for _, repo := range d.Repositories {
		if repo.Name == name {
			return repo, true
		}
	}
	return ir.RepositorySpec{}, false
}

// LoadError represents an error that occurred during declaration loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeDecodeError = "E007" // CUE decode error
	ErrCodeResolution  = "E101" // Operation resolution failed
	ErrCodeBadArgs     = "E102" // Invalid invocation arguments
)

// LoadDeclarations loads record and repository declarations from a
// directory of CUE files. Declarations live under top-level "record"
// and "repository" structs, keyed by name.
func LoadDeclarations(dir string) (*Declarations, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("declarations directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing declarations directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	decls := &Declarations{FileCount: len(cueFiles)}

	recordsVal := value.LookupPath(cue.ParsePath("record"))
	if recordsVal.Exists() {
		iter, iterErr := recordsVal.Fields()
		if iterErr != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating records: %v", iterErr)}
		}
		for iter.Next() {
			var rec ir.RecordSpec
			if decErr := iter.Value().Decode(&rec); decErr != nil {
				return nil, &LoadError{Code: ErrCodeDecodeError, Message: fmt.Sprintf("record.%s: %v", iter.Selector(), decErr)}
			}
			if rec.Name == "" {
				rec.Name = fmt.Sprint(iter.Selector())
			}
			decls.Records = append(decls.Records, rec)
		}
	}

	reposVal := value.LookupPath(cue.ParsePath("repository"))
	if reposVal.Exists() {
		iter, iterErr := reposVal.Fields()
		if iterErr != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating repositories: %v", iterErr)}
		}
		for iter.Next() {
			var repo ir.RepositorySpec
			if decErr := iter.Value().Decode(&repo); decErr != nil {
				return nil, &LoadError{Code: ErrCodeDecodeError, Message: fmt.Sprintf("repository.%s: %v", iter.Selector(), decErr)}
			}
			if repo.Name == "" {
				repo.Name = fmt.Sprint(iter.Selector())
			}
			decls.Repositories = append(decls.Repositories, repo)
		}
	}

	if len(decls.Records) == 0 && len(decls.Repositories) == 0 {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "no records or repositories found in declarations"}
	}

	return decls, nil
}

// findCUEFiles walks the directory and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
