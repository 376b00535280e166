package services

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"webasset/model"
	"webasset/utils"
)

// LoginResult is the outcome of one automated login attempt. A false Success
// is a business outcome, not a fault; the engine never lets an automation
// error escape as a panic or unhandled failure.
type LoginResult struct {
	Success      bool
	Message      string
	ArtifactPath string
}

// Fallback selector cascades for sites without configured selectors. Banking
// pages are third-party markup we do not control, so each entry is attempted
// in order with a short per-attempt timeout.
var (
	usernameFallbacks = []string{
		`input[name="username"]`,
		`input[name="user"]`,
		`input[name="email"]`,
		`input[type="email"]`,
		`input[id="username"]`,
		`input[id="user"]`,
	}

	passwordFallbacks = []string{
		`input[name="password"]`,
		`input[type="password"]`,
		`input[id="password"]`,
		`input[id="pass"]`,
	}

	submitFallbacks = []string{
		`button[type="submit"]`,
		`input[type="submit"]`,
		`button:has-text("Login")`,
		`button:has-text("Sign In")`,
		`button:has-text("Entrar")`,
	}

	logoutIndicators = []string{
		`a:has-text("Logout")`,
		`a:has-text("Sign Out")`,
		`a:has-text("Cerrar Sesión")`,
		`button:has-text("Logout")`,
	}
)

// fillFunc attempts to fill a single selector within the given timeout.
type fillFunc func(selector string, timeout time.Duration) error

// fillWithFallback fills a form field: the configured selector gets the full
// timeout, otherwise each fallback is tried in order with the per-attempt
// timeout, stopping at the first success.
func fillWithFallback(fill fillFunc, configured string, fallbacks []string, overall, perAttempt time.Duration) error {
	if configured != "" {
		return fill(configured, overall)
	}

	for _, selector := range fallbacks {
		if err := fill(selector, perAttempt); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no selector matched after %d attempts", len(fallbacks))
}

// LoginAutomation drives headless Chromium login flows against banking
// sites. One Playwright driver instance is shared across attempts.
type LoginAutomation struct {
	artifactDir     string
	headless        bool
	selectorTimeout time.Duration

	runOnce sync.Once
	runErr  error
	pw      *playwright.Playwright
}

// NewLoginAutomation builds the engine. The Playwright driver is started
// lazily on the first login attempt.
func NewLoginAutomation(artifactDir string, headless bool, selectorTimeout time.Duration) *LoginAutomation {
	if selectorTimeout <= 0 {
		selectorTimeout = 2 * time.Second
	}
	return &LoginAutomation{
		artifactDir:     artifactDir,
		headless:        headless,
		selectorTimeout: selectorTimeout,
	}
}

func (a *LoginAutomation) ensureRunning() error {
	a.runOnce.Do(func() {
		opts := &playwright.RunOptions{
			Verbose: false,
			Stdout:  io.Discard,
			Stderr:  io.Discard,
		}
		if err := playwright.Install(opts); err != nil {
			a.runErr = fmt.Errorf("failed to install playwright: %w", err)
			return
		}
		pw, err := playwright.Run(opts)
		if err != nil {
			a.runErr = fmt.Errorf("failed to start playwright: %w", err)
			return
		}
		a.pw = pw
	})
	return a.runErr
}

// Shutdown stops the shared Playwright driver.
func (a *LoginAutomation) Shutdown() error {
	if a.pw == nil {
		return nil
	}
	return a.pw.Stop()
}

func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}

// PerformLogin navigates to the site's login page and drives the credential
// injection sequence. workspaceURL identifies the remote workspace the
// session belongs to and is only used for diagnostics. Every failure mode is
// reported through the returned LoginResult.
func (a *LoginAutomation) PerformLogin(site *model.BankingSite, cred Credential, workspaceURL string, timeout time.Duration) (result LoginResult) {
	timer := utils.TrackExternalCall("automation", "perform_login")
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			utils.TrackError("automation", "panic")
			result = LoginResult{Success: false, Message: fmt.Sprintf("Automation error: %v", r)}
		}
	}()

	if err := a.ensureRunning(); err != nil {
		return LoginResult{Success: false, Message: fmt.Sprintf("Automation error: %v", err)}
	}

	browser, err := a.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(a.headless),
	})
	if err != nil {
		utils.TrackError("automation", "browser_launch")
		return LoginResult{Success: false, Message: fmt.Sprintf("Automation error: %v", err)}
	}
	defer browser.Close()

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1920, Height: 1080},
		UserAgent: playwright.String(
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
	})
	if err != nil {
		return LoginResult{Success: false, Message: fmt.Sprintf("Automation error: %v", err)}
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return LoginResult{Success: false, Message: fmt.Sprintf("Automation error: %v", err)}
	}
	defer page.Close()

	loginURL := site.LoginURL
	if loginURL == "" {
		loginURL = site.URL
	}

	log.Printf("Automation: navigating to %s for site %s (workspace %s)", loginURL, site.Code, workspaceURL)
	if _, err := page.Goto(loginURL, playwright.PageGotoOptions{
		Timeout: playwright.Float(ms(timeout)),
	}); err != nil {
		utils.TrackError("automation", "navigation")
		return LoginResult{Success: false, Message: fmt.Sprintf("Automation error: navigation failed: %v", err)}
	}

	// Best effort: most in-flight requests settled before touching the form.
	_ = page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(ms(timeout)),
	})

	pageFill := func(value string) fillFunc {
		return func(selector string, t time.Duration) error {
			return page.Fill(selector, value, playwright.PageFillOptions{
				Timeout: playwright.Float(ms(t)),
			})
		}
	}

	// A missing username field is tolerated; some flows ask for it on a
	// separate step. A password field we cannot find means the form never
	// appeared.
	if err := fillWithFallback(pageFill(cred.Username), site.UsernameSelector, usernameFallbacks, timeout, a.selectorTimeout); err != nil {
		log.Printf("Automation: username field not filled for %s: %v", site.Code, err)
	}

	if err := fillWithFallback(pageFill(cred.Password), site.PasswordSelector, passwordFallbacks, timeout, a.selectorTimeout); err != nil {
		utils.TrackError("automation", "password_field")
		return LoginResult{Success: false, Message: "Timeout waiting for login form fields"}
	}

	a.submit(page, site, timeout)

	if site.TwoFactorSelector != "" {
		if el, err := page.QuerySelector(site.TwoFactorSelector); err == nil && el != nil {
			return LoginResult{Success: false, Message: "Two-factor challenge detected - manual completion required"}
		}
	}

	if err := a.waitForCompletion(page, site, timeout); err != nil {
		utils.TrackError("automation", "completion_timeout")
		return LoginResult{Success: false, Message: "Timeout waiting for login completion"}
	}

	if isLoginErrorURL(page.URL(), loginURL) {
		log.Printf("Automation: login appears to have failed for %s - still on login page", site.Code)
		return LoginResult{Success: false, Message: "Login failed - invalid credentials or page error"}
	}

	artifactPath := filepath.Join(a.artifactDir, fmt.Sprintf("login_%s.png", site.Code))
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(artifactPath),
	}); err != nil {
		log.Printf("Automation: screenshot failed for %s: %v", site.Code, err)
		artifactPath = ""
	}

	log.Printf("Automation: login successful for %s", site.Code)
	return LoginResult{
		Success:      true,
		Message:      "Login completed successfully",
		ArtifactPath: artifactPath,
	}
}

// submit runs the submit-control cascade: configured selector, then common
// submit patterns, then a keyboard Enter as the last resort. Each strategy
// shares the page -> bool contract and the first success wins.
func (a *LoginAutomation) submit(page playwright.Page, site *model.BankingSite, timeout time.Duration) {
	click := func(selector string, t time.Duration) func() bool {
		return func() bool {
			err := page.Click(selector, playwright.PageClickOptions{
				Timeout: playwright.Float(ms(t)),
			})
			return err == nil
		}
	}

	var strategies []func() bool
	if site.SubmitSelector != "" {
		strategies = append(strategies, click(site.SubmitSelector, timeout))
	} else {
		for _, selector := range submitFallbacks {
			strategies = append(strategies, click(selector, a.selectorTimeout))
		}
	}
	strategies = append(strategies, func() bool {
		return page.Keyboard().Press("Enter") == nil
	})

	for _, attempt := range strategies {
		if attempt() {
			return
		}
	}
}

func (a *LoginAutomation) waitForCompletion(page playwright.Page, site *model.BankingSite, timeout time.Duration) error {
	if site.SuccessIndicator != "" {
		_, err := page.WaitForSelector(site.SuccessIndicator, playwright.PageWaitForSelectorOptions{
			Timeout: playwright.Float(ms(timeout)),
		})
		return err
	}
	return page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(ms(timeout)),
	})
}

// isLoginErrorURL reports whether the browser is still on the login page
// with an error marker in the address.
func isLoginErrorURL(currentURL, loginURL string) bool {
	if loginURL == "" || !strings.Contains(currentURL, loginURL) {
		return false
	}
	return strings.Contains(strings.ToLower(currentURL), "error")
}

// VerifySession probes a page for common logout indicators to confirm an
// established login.
func (a *LoginAutomation) VerifySession(pageURL string) bool {
	if err := a.ensureRunning(); err != nil {
		log.Printf("Automation: verify skipped: %v", err)
		return false
	}

	browser, err := a.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return false
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return false
	}
	defer page.Close()

	if _, err := page.Goto(pageURL); err != nil {
		return false
	}

	for _, indicator := range logoutIndicators {
		if el, err := page.QuerySelector(indicator); err == nil && el != nil {
			return true
		}
	}
	return false
}
