//go:build darwin

package cpu

// pinToCore is a no-op: macOS exposes no hard thread affinity API.
func pinToCore(int) error {
	return nil
}
