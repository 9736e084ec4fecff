package director

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ManifestPath строит имя файла-описания рядом с видео: <база>_<время>.yaml.
func ManifestPath(output string, now time.Time) string {
	dir := filepath.Dir(output)
	base := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	timestamp := now.Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.yaml", base, timestamp))
}
