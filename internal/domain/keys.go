package domain

import (
	"fmt"
	"path"
	"strings"
)

const (
	RawPrefix    = "raw/"
	ReportPrefix = "relatorios/"
	CSVSuffix    = ".csv"
	ReportSuffix = "_relatorio.csv"
)

// RawKey maps a file name ("vendas" or "vendas.csv") to its raw object key.
func RawKey(name string) (string, error) {
	base, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(base, CSVSuffix) {
		base += CSVSuffix
	}
	return RawPrefix + base, nil
}

// ReportKeyForName maps a base name ("vendas" or "vendas.csv") to its report key.
func ReportKeyForName(name string) (string, error) {
	base, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return ReportPrefix + strings.TrimSuffix(base, CSVSuffix) + ReportSuffix, nil
}

// ReportKey derives relatorios/<name>_relatorio.csv from raw/<name>.csv.
func ReportKey(rawKey string) (string, error) {
	if !strings.HasPrefix(rawKey, RawPrefix) || !strings.HasSuffix(rawKey, CSVSuffix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, rawKey)
	}
	name := strings.TrimSuffix(strings.TrimPrefix(rawKey, RawPrefix), CSVSuffix)
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, rawKey)
	}
	return ReportPrefix + name + ReportSuffix, nil
}

// RawFileName strips the raw/ prefix.
func RawFileName(key string) string {
	return strings.TrimPrefix(key, RawPrefix)
}

// ReportBaseName strips the relatorios/ prefix and _relatorio.csv suffix.
func ReportBaseName(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, ReportPrefix), ReportSuffix)
}

// UploadFileName validates an uploaded file name and returns the name it is
// stored under. Directories are dropped: the namespace is flat.
func UploadFileName(filename string) (string, error) {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if !strings.HasSuffix(base, CSVSuffix) || base == CSVSuffix {
		return "", fmt.Errorf("%w: apenas arquivos CSV são permitidos", ErrInvalidFile)
	}
	return base, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("%w: nome %q", ErrInvalidKey, name)
	}
	return name, nil
}
