// Command securelog-ecc is the key-management, offline-decryption, and
// runtime-introspection companion to the securelog-ecc masking pipeline.
//
// Commands:
//
//	keygen   Generate an SM2 key pair and print the public key fingerprint
//	decrypt  Decrypt a SECURE_DATA envelope given a base64 PKCS#8 private key
//	serve    Run the /status and /metrics introspection HTTP server
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"securelog-ecc/internal/config"
	"securelog-ecc/internal/crypto"
	"securelog-ecc/internal/envelope"
	"securelog-ecc/internal/introspect"
	"securelog-ecc/internal/logger"
	"securelog-ecc/internal/metrics"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "securelog-ecc",
		Short: "Key management and offline decryption for securelog-ecc envelopes",
	}
	root.AddCommand(keygenCmd(), decryptCmd(), serveCmd())
	return root
}

func keygenCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an SM2 key pair and save it to timestamped files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(outDir)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write the key files into")
	return cmd
}

func runKeygen(outDir string) error {
	pair, err := crypto.GenerateSM2KeyPair()
	if err != nil {
		return fmt.Errorf("generate key pair: %w", err)
	}

	pubDER, err := crypto.EncodePublicKeyX509(pair.Public)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}
	privDER, err := crypto.EncodePrivateKeyX509(pair.Private)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}
	fp, err := crypto.Fingerprint(pair.Public)
	if err != nil {
		return fmt.Errorf("compute fingerprint: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	pubPath := fmt.Sprintf("%s/sm2_public_%s.b64", outDir, stamp)
	privPath := fmt.Sprintf("%s/sm2_private_%s.b64", outDir, stamp)

	if err := os.WriteFile(pubPath, []byte(crypto.B64Encode(pubDER)), 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	if err := os.WriteFile(privPath, []byte(crypto.B64Encode(privDER)), 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}

	fmt.Printf("public key  : %s\n", pubPath)
	fmt.Printf("private key : %s\n", privPath)
	fmt.Printf("fingerprint : %s\n", fp)
	return nil
}

func decryptCmd() *cobra.Command {
	var privKeyB64, secureData, outFile, transformation string
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a SECURE_DATA envelope and append the plaintext to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecrypt(privKeyB64, secureData, outFile, transformation)
		},
	}
	cmd.Flags().StringVar(&privKeyB64, "key", "", "base64 PKCS#8 SM2 private key (required)")
	cmd.Flags().StringVar(&secureData, "data", "", "base64 SECURE_DATA envelope (required)")
	cmd.Flags().StringVar(&outFile, "out", "sm2_decrypt_output.txt", "file to append decrypted plaintext to")
	cmd.Flags().StringVar(&transformation, "transformation", "SM4/GCM/NoPadding",
		"SM4 cipher transformation the envelope was produced with (e.g. SM4/CBC/PKCS5Padding); "+
			"must agree with the envelope's declared IV length")
	cmd.Flags().StringVar(&transformation, "mode", "SM4/GCM/NoPadding", "alias for --transformation")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("data")
	return cmd
}

func runDecrypt(privKeyB64, secureData, outFile, transformation string) error {
	privDER, err := crypto.B64Decode(privKeyB64)
	if err != nil {
		return fmt.Errorf("decode private key: %w", err)
	}
	priv, err := crypto.DecodePrivateKeyX509(privDER)
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}

	env, err := envelope.DecodeB64(secureData)
	if err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	sm4Key, err := crypto.SM2DecryptKey(priv, env.SM2WrappedKey)
	if err != nil {
		return fmt.Errorf("unwrap session key: %w", err)
	}

	configured, err := crypto.ParseSm4Mode(transformation)
	if err != nil {
		return fmt.Errorf("parse --transformation: %w", err)
	}
	mode, err := crypto.ModeFromIVLen(len(env.IV), configured)
	if err != nil {
		return fmt.Errorf("determine cipher mode: %w", err)
	}
	plaintext, err := crypto.SM4Decrypt(mode, sm4Key, env.IV, env.SM4Ciphertext)
	if err != nil {
		return fmt.Errorf("decrypt payload: %w", err)
	}

	f, err := os.OpenFile(outFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(plaintext, '\n')); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}

	fmt.Printf("decrypted %d bytes, appended to %s\n", len(plaintext), outFile)
	return nil
}

func serveCmd() *cobra.Command {
	var addr, publicKeyB64, logLevel string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the /status and /metrics introspection HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, publicKeyB64, logLevel)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9090", "address for the introspection HTTP server to listen on")
	cmd.Flags().StringVar(&publicKeyB64, "public-key", "", "base64 X.509 SM2 public key (overrides ecc.public.key from the properties file)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, or error")
	return cmd
}

func runServe(addr, publicKeyB64, logLevel string) error {
	var opts []config.Option
	if publicKeyB64 != "" {
		opts = append(opts, config.WithPublicKey(publicKeyB64))
	}
	opts = append(opts, config.WithLogLevel(logLevel))
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("INTROSPECT", cfg.LogLevel)
	met := metrics.New()
	srv := introspect.New(cfg, met, log)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("shutdown", "shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Errorf("shutdown", "shutdown error: %v", err)
		}
	}()

	fmt.Printf("introspection server listening on %s (GET /status, GET /metrics)\n", addr)
	log.Infof("listen", "listening on %s", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
