package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/droneguard/droneguard/pkg/config"
	"github.com/urfave/cli/v3"
)

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86")).
				Background(lipgloss.Color("235")).
				Padding(0, 1).
				Margin(0, 0, 1, 0)

	statusOKStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	statusBadStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	statusMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	statusDeviceStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1).
				Margin(0, 0, 1, 2)
)

// StatusCommand creates the status command
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show hub health and connected devices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Hub base URL (defaults to the configured listen address on localhost)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return showStatus(ctx, c.String("config"), c.String("url"))
		},
	}
}

func showStatus(ctx context.Context, configPath, baseURL string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if baseURL == "" {
		addr := cfg.ListenAddr
		if strings.HasPrefix(addr, ":") {
			addr = "127.0.0.1" + addr
		}
		baseURL = "http://" + addr
	}
	baseURL = strings.TrimRight(baseURL, "/")

	client := &http.Client{Timeout: 5 * time.Second}

	fmt.Println(statusTitleStyle.Render("droneguard hub"))
	fmt.Println(statusMetaStyle.Render(baseURL))
	fmt.Println()

	health, err := fetchJSON(ctx, client, baseURL+"/health", "")
	if err != nil {
		fmt.Println(statusBadStyle.Render("✗ hub unreachable"))
		return fmt.Errorf("health check: %w", err)
	}
	version, _ := health["version"].(string)
	fmt.Printf("%s %s\n\n", statusOKStyle.Render("✓ healthy"), statusMetaStyle.Render("api "+version))

	clients, err := fetchJSON(ctx, client, baseURL+"/v1/drone/clients", cfg.APIKey)
	if err != nil {
		fmt.Println(statusMetaStyle.Render("subscriber info unavailable: " + err.Error()))
		return nil
	}

	devices, _ := clients["devices"].(map[string]any)
	total, _ := clients["total_subs"].(float64)
	if len(devices) == 0 {
		fmt.Println(statusMetaStyle.Render("no devices connected"))
		return nil
	}

	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		count := devices[name].(float64)
		line := fmt.Sprintf("%s  %s", name, statusMetaStyle.Render(fmt.Sprintf("%d subscriber(s)", int(count))))
		fmt.Println(statusDeviceStyle.Render(line))
	}
	fmt.Println(statusMetaStyle.Render(fmt.Sprintf("total subscribers: %d", int(total))))
	return nil
}

func fetchJSON(ctx context.Context, client *http.Client, url, apiKey string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
