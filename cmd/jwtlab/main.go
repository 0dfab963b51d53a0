// Command jwtlab decodes, verifies and signs JSON Web Tokens from the shell.
//
// Usage:
//
//	jwtlab [-v] <command> [flags] [token]
//
// Commands:
//
//	decode   print header, payload and format diagnostics
//	verify   check the signature with the supplied key
//	sign     sign a header and payload, optionally writing jwt-token.txt
//	presets  list the demo algorithm presets
//	claims   add the common registered claims to a payload
//	jwk      print the public key as a JWK
//
// Keys come from -secret, -public-key and -private-key, falling back to
// JWTLAB_SECRET, JWTLAB_PUBLIC_KEY_FILE and JWTLAB_PRIVATE_KEY_FILE. A .env file in
// the working directory is loaded first when present. When no token argument is
// given, it is read from stdin.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MrEthical07/jwtlab"
	"github.com/MrEthical07/jwtlab/claims"
	"github.com/MrEthical07/jwtlab/jwt"
	"github.com/MrEthical07/jwtlab/preset"
	"github.com/MrEthical07/jwtlab/token"
	"github.com/joho/godotenv"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	now    func() time.Time
	logger *slog.Logger
}

func main() {
	_ = godotenv.Load()

	c := &cli{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		now:    time.Now,
	}
	os.Exit(c.run(os.Args[1:]))
}

func (c *cli) run(args []string) int {
	global := flag.NewFlagSet("jwtlab", flag.ContinueOnError)
	global.SetOutput(c.stderr)
	verbose := global.Bool("v", false, "enable debug logging")
	global.Usage = func() {
		fmt.Fprintln(c.stderr, "usage: jwtlab [-v] decode|verify|sign|presets|claims|jwk [flags] [token]")
	}
	if err := global.Parse(args); err != nil {
		return exitUsage
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return exitUsage
	}

	commands := map[string]func([]string) error{
		"decode":  c.decode,
		"verify":  c.verify,
		"sign":    c.sign,
		"presets": c.presets,
		"claims":  c.addClaims,
		"jwk":     c.jwk,
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(c.stderr, "unknown command %q\n", rest[0])
		global.Usage()
		return exitUsage
	}

	err := cmd(rest[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return exitUsage
	default:
		c.logger.Error(rest[0]+" failed", slog.String("error", err.Error()))
		return exitFail
	}
}

/*
====================================
KEYS AND INPUT
====================================
*/

type keyFlags struct {
	secret     string
	publicKey  string
	privateKey string
}

func (k *keyFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&k.secret, "secret", "", "HMAC secret (env JWTLAB_SECRET)")
	fs.StringVar(&k.publicKey, "public-key", "", "PEM public key file (env JWTLAB_PUBLIC_KEY_FILE)")
	fs.StringVar(&k.privateKey, "private-key", "", "PEM private key file (env JWTLAB_PRIVATE_KEY_FILE)")
}

func (c *cli) keys(k keyFlags) (jwt.KeyMaterial, error) {
	var out jwt.KeyMaterial
	out.Secret = firstNonEmpty(k.secret, c.getenv("JWTLAB_SECRET"))

	for _, slot := range []struct {
		path string
		dst  *string
		name string
	}{
		{firstNonEmpty(k.publicKey, c.getenv("JWTLAB_PUBLIC_KEY_FILE")), &out.PublicKey, "public key"},
		{firstNonEmpty(k.privateKey, c.getenv("JWTLAB_PRIVATE_KEY_FILE")), &out.PrivateKey, "private key"},
	} {
		if slot.path == "" {
			continue
		}
		b, err := os.ReadFile(slot.path)
		if err != nil {
			return jwt.KeyMaterial{}, fmt.Errorf("read %s: %w", slot.name, err)
		}
		*slot.dst = string(b)
	}
	c.logger.Debug("keys loaded", slog.String("keys", out.String()))
	return out, nil
}

func (c *cli) tokenArg(args []string) (string, error) {
	if len(args) > 1 {
		return "", errUsage
	}
	if len(args) == 1 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}
	b, err := io.ReadAll(io.LimitReader(c.stdin, token.MaxTokenLength+1))
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *cli) writeJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// inspect runs token through a throwaway session and returns its settled state.
func (c *cli) inspect(compact string, keys jwt.KeyMaterial, leeway time.Duration) (jwtlab.Snapshot, error) {
	cfg := jwtlab.DefaultConfig()
	cfg.Debounce.Window = 0
	cfg.Session.InitialPreset = ""
	cfg.Session.ExpiryLeeway = leeway

	s, err := jwtlab.New().WithConfig(cfg).WithLogger(c.logger).WithClock(c.now).Build()
	if err != nil {
		return jwtlab.Snapshot{}, err
	}
	defer s.Close()

	if !keys.IsZero() {
		if err := s.SetKeys(keys); err != nil {
			return jwtlab.Snapshot{}, err
		}
	}
	if err := s.SetToken(compact); err != nil {
		return jwtlab.Snapshot{}, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Settle(ctx); err != nil {
		return jwtlab.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

/*
====================================
COMMANDS
====================================
*/

type decodeOutput struct {
	Header      map[string]any `json:"header,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	Signature   string         `json:"signature,omitempty"`
	Algorithm   string         `json:"algorithm,omitempty"`
	ValidFormat bool           `json:"validFormat"`
	FormatError string         `json:"formatError,omitempty"`
	Expired     bool           `json:"expired"`
	Verified    *bool          `json:"signatureValid,omitempty"`
	Error       string         `json:"signatureError,omitempty"`
}

func outputOf(snap jwtlab.Snapshot) decodeOutput {
	v := snap.Validation
	out := decodeOutput{
		Algorithm:   v.Algorithm,
		ValidFormat: v.IsValidFormat,
		FormatError: v.FormatError,
		Expired:     v.Expired,
		Verified:    v.IsSignatureValid,
		Error:       v.SignatureError,
	}
	if v.Decoded != nil {
		out.Header, out.Payload, out.Signature = v.Decoded.Header, v.Decoded.Payload, v.Decoded.Signature
	}
	return out
}

func (c *cli) decode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	leeway := fs.Duration("leeway", 0, "expiry leeway")
	if err := fs.Parse(args); err != nil {
		return err
	}
	compact, err := c.tokenArg(fs.Args())
	if err != nil {
		return err
	}

	snap, err := c.inspect(compact, jwt.KeyMaterial{}, *leeway)
	if err != nil {
		return err
	}
	if err := c.writeJSON(outputOf(snap)); err != nil {
		return err
	}
	if !snap.Validation.IsValidFormat {
		return fmt.Errorf("malformed token: %s", snap.Validation.FormatError)
	}
	return nil
}

func (c *cli) verify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var kf keyFlags
	kf.register(fs)
	leeway := fs.Duration("leeway", 0, "expiry leeway")
	if err := fs.Parse(args); err != nil {
		return err
	}
	compact, err := c.tokenArg(fs.Args())
	if err != nil {
		return err
	}
	keys, err := c.keys(kf)
	if err != nil {
		return err
	}

	snap, err := c.inspect(compact, keys, *leeway)
	if err != nil {
		return err
	}
	if !snap.Validation.IsValidFormat {
		return fmt.Errorf("malformed token: %s", snap.Validation.FormatError)
	}

	fmt.Fprintf(c.stdout, "%s %s\n", snap.Validation.Algorithm, snap.Signature)
	if snap.Validation.Expired {
		fmt.Fprintln(c.stdout, "expired")
	}
	switch snap.Signature {
	case jwt.SignatureValid:
		return nil
	case jwt.SignatureUnverified:
		return errors.New("no key material for " + snap.Validation.Algorithm)
	default:
		return fmt.Errorf("signature invalid: %s", snap.Validation.SignatureError)
	}
}

func (c *cli) sign(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var kf keyFlags
	kf.register(fs)
	alg := fs.String("alg", "HS256", "signing algorithm")
	payloadText := fs.String("payload", "", "payload JSON object (default: sample claims)")
	headerText := fs.String("header", "", "extra header JSON object")
	usePreset := fs.Bool("preset", false, "use the demo keys of the algorithm preset")
	common := fs.Bool("common", false, "add the common registered claims")
	out := fs.String("out", "", "write the token to this file, e.g. "+jwtlab.ExportFileName)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return errUsage
	}

	algorithm, err := jwt.ParseAlgorithm(*alg)
	if err != nil {
		return err
	}
	keys, err := c.keys(kf)
	if err != nil {
		return err
	}
	if *usePreset {
		p, err := preset.ForAlgorithm(algorithm)
		if err != nil {
			return err
		}
		keys = keys.Merge(p.Keys)
	}

	header := map[string]any{"typ": "JWT"}
	if *headerText != "" {
		extra, err := token.ParseObject(*headerText)
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		for k, v := range extra {
			header[k] = v
		}
	}
	header["alg"] = string(algorithm)

	payload := preset.SampleClaims()
	if *payloadText != "" {
		if payload, err = token.ParseObject(*payloadText); err != nil {
			return fmt.Errorf("payload: %w", err)
		}
	}
	if *common {
		payload = claims.AddCommon(payload, c.now(), claims.DefaultDefaults())
	}

	signed, err := jwt.NewSigner().Sign(context.Background(), header, payload, keys)
	if errors.Is(err, jwt.ErrMissingKeyMaterial) {
		return fmt.Errorf("%w: %s", err, jwt.RequiredSlot(algorithm))
	}
	if err != nil {
		return err
	}

	if *out != "" {
		if err := os.WriteFile(*out, []byte(signed), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", *out, err)
		}
		c.logger.Info("token written", slog.String("file", *out), slog.String("algorithm", string(algorithm)))
		return nil
	}
	_, err = fmt.Fprintln(c.stdout, signed)
	return err
}

func (c *cli) presets(args []string) error {
	fs := flag.NewFlagSet("presets", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKEY\tDESCRIPTION")
	for _, name := range preset.Names() {
		p, err := preset.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, jwt.RequiredSlot(p.Algorithm), p.Description)
	}
	return tw.Flush()
}

func (c *cli) addClaims(args []string) error {
	fs := flag.NewFlagSet("claims", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	d := claims.DefaultDefaults()
	fs.StringVar(&d.Issuer, "iss", d.Issuer, "issuer")
	fs.StringVar(&d.Subject, "sub", d.Subject, "subject")
	fs.StringVar(&d.Audience, "aud", d.Audience, "audience")
	fs.DurationVar(&d.TTL, "ttl", d.TTL, "lifetime added to iat for exp")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return errUsage
	}

	payload := map[string]any{}
	if fs.NArg() == 1 {
		var err error
		if payload, err = token.ParseObject(fs.Arg(0)); err != nil {
			return fmt.Errorf("payload: %w", err)
		}
	}
	_, err := fmt.Fprintln(c.stdout, token.Pretty(claims.AddCommon(payload, c.now(), d)))
	return err
}

func (c *cli) jwk(args []string) error {
	fs := flag.NewFlagSet("jwk", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var kf keyFlags
	kf.register(fs)
	alg := fs.String("alg", "RS256", "algorithm the key is used with")
	kid := fs.String("kid", "", "key id (default: RFC 7638 thumbprint)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	algorithm, err := jwt.ParseAlgorithm(*alg)
	if err != nil {
		return err
	}
	keys, err := c.keys(kf)
	if err != nil {
		return err
	}
	out, err := jwt.PublicJWK(algorithm, keys, *kid)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, string(out))
	return err
}
