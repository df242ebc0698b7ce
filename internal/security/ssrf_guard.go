// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// ErrURLNotAllowed はURLが外部取得の対象として許可されないことを示す。
var ErrURLNotAllowed = errors.New("url not allowed")

// URLGuard は品物の写真URLなど、利用者が入力した外部URLの安全性を扱うインターフェース。
// 登録時の静的検証（ValidateURL）と取得時の接続先検証（NewSafeClient）の両方を提供する。
type URLGuard interface {
	// NewSafeClient は接続直前に解決済みIPアドレスを検証するHTTPクライアントを生成する。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateURL はDNS解決を伴わずにURLを検証する。
	// 許可されない場合はErrURLNotAllowedをラップしたエラーを返す。
	ValidateURL(rawURL string) error
}

// allowedSchemes は外部取得で許可するURLスキーム。
var allowedSchemes = []string{"http", "https"}

// allowedPorts は外部取得で許可するポート。
var allowedPorts = []int{80, 443}

type blockedRange struct {
	network *net.IPNet
	label   string
}

// blockedRanges は静的検証で拒否するアドレス範囲。
var blockedRanges = mustParseRanges(map[string]string{
	"0.0.0.0/8":      "current network",
	"10.0.0.0/8":     "private network",
	"100.64.0.0/10":  "carrier-grade NAT",
	"127.0.0.0/8":    "loopback",
	"169.254.0.0/16": "link-local",
	"172.16.0.0/12":  "private network",
	"192.168.0.0/16": "private network",
	"198.18.0.0/15":  "benchmark network",
	"::/128":         "unspecified",
	"::1/128":        "loopback",
	"fc00::/7":       "unique local",
	"fe80::/10":      "link-local",
})

// blockedHostnames はIPアドレスでなくても拒否するホスト名。
var blockedHostnames = map[string]bool{
	"localhost":                true,
	"metadata":                 true,
	"metadata.google.internal": true,
}

func mustParseRanges(cidrs map[string]string) []blockedRange {
	ranges := make([]blockedRange, 0, len(cidrs))
	for cidr, label := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR %s: %v", cidr, err))
		}
		ranges = append(ranges, blockedRange{network: network, label: label})
	}
	return ranges
}

// urlGuard はURLGuardの実装。
type urlGuard struct{}

// NewURLGuard はURLGuardの新しいインスタンスを生成する。
func NewURLGuard() URLGuard {
	return &urlGuard{}
}

// NewSafeClient はsafeurlでラップしたHTTPクライアントを生成する。
// 接続先IPの検証はDNS解決後にDialerで行われるため、DNS再バインディングも拒否される。
func (g *urlGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(allowedPorts...).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はスキーム・ホスト・ポート・IPアドレス範囲を検証する。
func (g *urlGuard) ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: empty url", ErrURLNotAllowed)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrURLNotAllowed, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !contains(allowedSchemes, scheme) {
		return fmt.Errorf("%w: scheme %q", ErrURLNotAllowed, parsed.Scheme)
	}

	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrURLNotAllowed)
	}
	if parsed.User != nil {
		return fmt.Errorf("%w: credentials in url", ErrURLNotAllowed)
	}

	if port := parsed.Port(); port != "" && !portAllowed(port) {
		return fmt.Errorf("%w: port %s", ErrURLNotAllowed, port)
	}

	if ip := net.ParseIP(host); ip != nil {
		for _, r := range blockedRanges {
			if r.network.Contains(ip) {
				return fmt.Errorf("%w: %s address %s", ErrURLNotAllowed, r.label, ip)
			}
		}
		return nil
	}

	if blockedHostnames[host] || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: host %s", ErrURLNotAllowed, host)
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func portAllowed(port string) bool {
	for _, p := range allowedPorts {
		if fmt.Sprint(p) == port {
			return true
		}
	}
	return false
}
