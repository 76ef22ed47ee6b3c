package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/annel0/codecity/internal/city"
	"github.com/annel0/codecity/internal/replay"
	"github.com/annel0/codecity/internal/scantree"
)

const defaultServerAddr = "http://localhost:8088"

func main() {
	var (
		serverAddr = flag.String("server", defaultServerAddr, "адрес REST сервера")
		command    = flag.String("cmd", "info", "Команда: info, blocks, resolve, pins, replay, layout")
		path       = flag.String("path", "", "путь узла (resolve) или корень сканирования (layout)")
		journal    = flag.String("journal", "", "файл полётного журнала *.jsonl.zst (для replay)")
		token      = flag.String("token", "", "JWT токен (для pins)")
		limit      = flag.Int("limit", 20, "максимум выводимых записей")
		depth      = flag.Int("depth", 4, "глубина сканирования (для layout)")
		nodes      = flag.Int("nodes", 4096, "предел узлов сканирования (для layout)")
	)
	flag.Parse()

	client := &cityClient{base: strings.TrimRight(*serverAddr, "/"), token: *token}

	switch *command {
	case "info":
		if err := showInfo(client); err != nil {
			log.Fatalf("❌ Info failed: %v", err)
		}

	case "blocks":
		if err := showBlocks(client, *limit); err != nil {
			log.Fatalf("❌ Blocks failed: %v", err)
		}

	case "resolve":
		if *path == "" {
			log.Fatalf("❌ Укажите -path")
		}
		if err := resolvePath(client, *path); err != nil {
			log.Fatalf("❌ Resolve failed: %v", err)
		}

	case "pins":
		if err := showPins(client); err != nil {
			log.Fatalf("❌ Pins failed: %v", err)
		}

	case "replay":
		if *journal == "" {
			log.Fatalf("❌ Укажите -journal")
		}
		if err := showReplay(*journal, *limit); err != nil {
			log.Fatalf("❌ Replay failed: %v", err)
		}

	case "layout":
		if *path == "" {
			log.Fatalf("❌ Укажите -path")
		}
		if err := showLayout(*path, *depth, *nodes); err != nil {
			log.Fatalf("❌ Layout failed: %v", err)
		}

	default:
		fmt.Printf("❌ Неизвестная команда: %s\n", *command)
		fmt.Println("Доступные команды: info, blocks, resolve, pins, replay, layout")
		os.Exit(1)
	}
}

type cityClient struct {
	base  string
	token string
}

func (c *cityClient) get(endpoint string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.base+endpoint, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

func showInfo(c *cityClient) error {
	var health struct {
		Status     string `json:"status"`
		Generation uint64 `json:"generation"`
	}
	if err := c.get("/health", &health); err != nil {
		return err
	}

	var city struct {
		Data struct {
			Generation uint64 `json:"generation"`
			Blocks     int    `json:"blocks"`
			Beacons    int    `json:"beacons"`
			Movers     int    `json:"movers"`
			ScanTime   string `json:"scan_time"`
		} `json:"data"`
	}
	if err := c.get("/api/city", &city); err != nil {
		return err
	}

	fmt.Printf("🏙️ Снимок города\n")
	fmt.Printf("   Статус:     %s\n", health.Status)
	fmt.Printf("   Поколение:  %d\n", city.Data.Generation)
	fmt.Printf("   Блоков:     %d\n", city.Data.Blocks)
	fmt.Printf("   Маяков:     %d\n", city.Data.Beacons)
	fmt.Printf("   Движения:   %d\n", city.Data.Movers)
	fmt.Printf("   Сканирован: %s\n", city.Data.ScanTime)
	return nil
}

func showBlocks(c *cityClient, limit int) error {
	var page struct {
		Data struct {
			Total  int `json:"total"`
			Blocks []struct {
				ID     uint64 `json:"id"`
				Path   string `json:"path"`
				Name   string `json:"name"`
				Kind   int    `json:"kind"`
				Height int    `json:"height"`
			} `json:"blocks"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("/api/city/blocks?offset=0&limit=%d", limit)
	if err := c.get(endpoint, &page); err != nil {
		return err
	}

	kinds := map[int]string{0: "файл", 1: "дир", 2: "ссылка"}
	fmt.Printf("📦 Блоков всего: %d (показано %d)\n", page.Data.Total, len(page.Data.Blocks))
	for _, b := range page.Data.Blocks {
		fmt.Printf("  %20d  %-6s  h=%-3d  %s\n", b.ID, kinds[b.Kind], b.Height, b.Path)
	}
	return nil
}

func resolvePath(c *cityClient, path string) error {
	var result json.RawMessage
	endpoint := "/api/city/resolve?path=" + url.QueryEscape(path)
	if err := c.get(endpoint, &result); err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}

func showPins(c *cityClient) error {
	var resp struct {
		Success bool `json:"success"`
		Data    []struct {
			Path      string    `json:"path"`
			BlockID   uint64    `json:"block_id"`
			Label     string    `json:"label"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"data"`
	}
	if err := c.get("/api/pins", &resp); err != nil {
		return err
	}

	fmt.Printf("📌 Закреплений: %d\n", len(resp.Data))
	for _, p := range resp.Data {
		label := p.Label
		if label == "" {
			label = "-"
		}
		fmt.Printf("  %20d  %-20s  %s\n", p.BlockID, label, p.Path)
	}
	return nil
}

// showLayout сканирует каталог локально, прогоняет маппер и печатает
// статистику раскладки как JSON (без запущенного сервера)
func showLayout(root string, maxDepth, maxNodes int) error {
	scanner := scantree.NewScanner(scantree.Options{MaxDepth: maxDepth, MaxNodes: maxNodes})
	tree, err := scanner.Scan(context.Background(), root)
	if err != nil {
		return err
	}

	blocks, beacons := city.Map(tree, city.DefaultRules(), nil)

	var files, dirs, maxHeight int
	var extX, extZ float64
	for i := range blocks {
		switch blocks[i].Kind {
		case scantree.KindDir:
			dirs++
		default:
			files++
		}
		if blocks[i].Height > maxHeight {
			maxHeight = blocks[i].Height
		}
		_, bmax := blocks[i].Bounds()
		if bmax.X > extX {
			extX = bmax.X
		}
		if bmax.Z > extZ {
			extZ = bmax.Z
		}
	}

	scanned := tree.CountNodes()
	stats := map[string]interface{}{
		"root":       root,
		"nodes":      scanned,
		"blocks":     len(blocks),
		"dropped":    scanned - 1 - len(blocks), // корень строением не становится
		"files":      files,
		"dirs":       dirs,
		"beacons":    len(beacons),
		"max_height": maxHeight,
		"extent":     map[string]float64{"x": extX, "z": extZ},
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func showReplay(journal string, limit int) error {
	frames, err := replay.ReadAll(journal)
	if err != nil {
		return err
	}

	fmt.Printf("🎞️ Кадров в журнале: %d\n", len(frames))
	if len(frames) == 0 {
		return nil
	}

	first, last := frames[0], frames[len(frames)-1]
	fmt.Printf("   Тики: %d..%d, поколения: %d..%d\n",
		first.Tick, last.Tick, first.Generation, last.Generation)

	step := 1
	if len(frames) > limit && limit > 0 {
		step = len(frames) / limit
	}
	for i := 0; i < len(frames); i += step {
		f := frames[i]
		flags := ""
		if f.Flying {
			flags += " полёт"
		}
		if f.Piloting {
			flags += " пилот"
		}
		if f.Grapple {
			flags += " крюк"
		}
		fmt.Printf("  tick=%-8d %-12s pos=(%.1f, %.1f, %.1f) yaw=%.2f%s\n",
			f.Tick, f.Mode, f.Pos.X, f.Pos.Y, f.Pos.Z, f.Yaw, flags)
	}
	return nil
}
