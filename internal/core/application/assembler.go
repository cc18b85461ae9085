package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".svg":  {},
	".webp": {},
}

type assembler struct {
	store      ports.ContentStore
	categories *domain.CategoryTable
}

func NewAssemblerService(
	store ports.ContentStore, categories *domain.CategoryTable,
) AssemblerService {
	if categories == nil {
		categories = domain.DefaultCategoryTable()
	}
	return &assembler{store, categories}
}

// Assemble uploads every image of source in lexical order, then the metadata
// record of each one, and returns the addresses of the records in the same
// order.
func (a *assembler) Assemble(ctx context.Context, source fs.FS) ([]string, error) {
	assets, err := listAssets(source)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("no image found in asset source")
	}

	references := make([]string, 0, len(assets))
	for _, assetPath := range assets {
		data, err := fs.ReadFile(source, assetPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read asset %s: %w", assetPath, err)
		}

		fileName := path.Base(assetPath)
		imageAddress, err := a.store.Put(ctx, fileName, data)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %s: %w", assetPath, err)
		}

		name := strings.TrimSuffix(fileName, path.Ext(fileName))
		record := domain.NewAssetRecord(name, imageAddress, a.categories)
		if len(record.Fans) == 0 {
			log.Warnf("no fan group known for asset %s, leaving it empty", name)
		}

		buf, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize metadata of %s: %w", name, err)
		}

		log.Infof("uploading %s...", name)
		metadataAddress, err := a.store.Put(ctx, name+".json", buf)
		if err != nil {
			return nil, fmt.Errorf("failed to upload metadata of %s: %w", name, err)
		}
		log.Debugf("uploaded %s: image %s metadata %s", name, imageAddress, metadataAddress)

		references = append(references, metadataAddress)
	}

	return references, nil
}

// listAssets returns the path of every image file in source. fs.WalkDir
// visits entries in lexical order so the result is stable across runs.
func listAssets(source fs.FS) ([]string, error) {
	assets := make([]string, 0)
	err := fs.WalkDir(source, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := imageExtensions[strings.ToLower(path.Ext(p))]; !ok {
			log.Debugf("skipping non image file %s", p)
			return nil
		}
		assets = append(assets, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}
