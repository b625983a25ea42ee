// Package provision performs the actual account creation on the trusted
// admin host. The lifecycle orchestrator only depends on the Creator
// interface; this package supplies the command-running adapter used in
// production.
package provision

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/cg505/ocflib/internal/account"
)

// ErrNoCommand means the provisioner was constructed without a command.
var ErrNoCommand = errors.New("provision: no creation command configured")

// Creator provisions one validated account. Each phase entered or left
// is reported through the callback; failures propagate to the caller
// with no retry at this layer.
type Creator interface {
	Create(ctx context.Context, req account.NewAccountRequest, creds account.Credentials, report func(line string)) error
}

// CommandCreator runs a configured creation command. Request fields are
// passed as flags; the recovered cleartext password is written to the
// command's stdin so it never appears on an argv. Every stdout line the
// command prints becomes a progress report.
type CommandCreator struct {
	// Command is the program and its fixed leading arguments.
	Command []string
}

func NewCommandCreator(command []string) *CommandCreator {
	return &CommandCreator{Command: command}
}

func (c *CommandCreator) Create(ctx context.Context, req account.NewAccountRequest, creds account.Credentials, report func(line string)) error {
	if len(c.Command) == 0 {
		return ErrNoCommand
	}

	key, err := account.LoadPrivateKey(creds.EncryptionKey)
	if err != nil {
		return fmt.Errorf("provision: load encryption key: %w", err)
	}
	password, err := account.DecryptPassword(req.EncryptedPassword, key)
	if err != nil {
		return fmt.Errorf("provision: recover password: %w", err)
	}

	args := append([]string{}, c.Command[1:]...)
	args = append(args,
		"--username", req.Username,
		"--real-name", req.RealName,
		"--email", req.Email,
	)
	if req.IsGroup {
		args = append(args, "--group", "--callink-oid", strconv.Itoa(req.CalLinkOID))
	} else {
		args = append(args, "--calnet-uid", strconv.Itoa(req.CalNetUID))
	}

	cmd := exec.CommandContext(ctx, c.Command[0], args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("provision: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("provision: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("provision: start %s: %w", c.Command[0], err)
	}

	if _, err := fmt.Fprintln(stdin, password); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("provision: write password: %w", err)
	}
	_ = stdin.Close()

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		report(scanner.Text())
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("provision: %s: %w", c.Command[0], err)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("provision: read output: %w", err)
	}
	return nil
}
