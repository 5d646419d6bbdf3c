package env

import (
	"regexp"
	"strings"
)

func IsEmpty(value string) bool {
	return value == ""
}

// Port number
func IsValidPort(port string) bool {
	matched, _ := regexp.MatchString("^(102[4-9]|10[3-9][0-9]|1[1-9][0-9]{2}|[2-9][0-9]{3}|[1-5][0-9]{4}|6[0-4][0-9]{3}|65[0-4][0-9]{2}|655[0-2][0-9]|6553[0-5])$", port)
	return matched
}

// Payout address: base58, 32-44 characters. Shape check only; on-chain
// validity is the settlement network's problem.
func IsValidPayoutAddress(address string) bool {
	matched, _ := regexp.MatchString("^[1-9A-HJ-NP-Za-km-z]{32,44}$", address)
	return matched
}

// URL
func IsValidURL(url string) bool {
	if url == "" {
		return false
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return false
	}
	urlWithoutProtocol := strings.TrimPrefix(strings.TrimPrefix(url, "http://"), "https://")
	parts := strings.Split(urlWithoutProtocol, ":")

	if len(parts) == 1 {
		if isValidHost(parts[0]) {
			return true
		}
		return false
	}

	if len(parts) != 2 {
		return false
	}

	if !isValidHost(parts[0]) {
		return false
	}

	return IsValidPort(parts[1])
}

func isValidHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ipPattern := `^((25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\.){3}(25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])$`
	if matched, _ := regexp.MatchString(ipPattern, host); matched {
		return true
	}
	domainPattern := `^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`
	matched, _ := regexp.MatchString(domainPattern, host)
	return matched
}
