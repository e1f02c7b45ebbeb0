package snippets

import (
	"os"

	json "github.com/goccy/go-json"

	"vsd/internal/models"
	"vsd/internal/providers"
	"vsd/internal/snippets/interfaces"
)

type FileManager struct {
	store      StoreInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, store StoreInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		logger:     logger,
	}
}

// SaveToFile writes the whole collection as a compressed versioned archive.
// The write goes through a temp file with an fsync before rename, so a
// crash mid-save leaves the previous file intact.
func (f *FileManager) SaveToFile(fileName string) error {
	archive := models.SnippetArchive{
		Version:  models.ArchiveVersion,
		Snippets: f.store.GetSnapshot(),
	}

	jsonData, err := json.Marshal(archive)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	// Try current format (versioned archive)
	var archive models.SnippetArchive
	if err := json.Unmarshal(decompressedData, &archive); err == nil && archive.Version >= 1 {
		f.store.Load(archive.Snippets)
		return nil
	}

	// Try old format (bare snippet array)
	f.logger.Warnf(providers.TypeApp, "Inconsistent snippet file found, try to migrate from old data format")
	var legacy []*models.Snippet
	if err := json.Unmarshal(decompressedData, &legacy); err != nil {
		f.logger.Warnf(providers.TypeApp, "Migration failed")
		return err
	}
	f.logger.Warnf(providers.TypeApp, "Migration from unversioned format successful")
	f.store.Load(legacy)

	return nil
}
