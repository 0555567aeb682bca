package docker

import (
	"fmt"
	"sort"
	"strings"

	"go.brick.build/brick/internal/core/domain"
	"go.brick.build/brick/internal/core/ports"
)

// renderDescriptor turns the typed build descriptor into Dockerfile
// text. This is the only place descriptor text exists; everything above
// the engine boundary works on the structured form.
func renderDescriptor(desc *domain.Descriptor, opts ports.BuildOptions) string {
	var b strings.Builder

	if desc.Syntax != "" {
		fmt.Fprintf(&b, "# syntax = %s\n", desc.Syntax)
	}

	for _, in := range desc.Instructions {
		switch i := in.(type) {
		case domain.From:
			if i.Alias != "" {
				fmt.Fprintf(&b, "FROM %s AS %s\n", i.Image, i.Alias)
			} else {
				fmt.Fprintf(&b, "FROM %s\n", i.Image)
			}
		case domain.Copy:
			fmt.Fprintf(&b, "COPY %s%s %s\n", chownFlag(i.Chown), i.Src, i.Dst)
		case domain.CopyFrom:
			fmt.Fprintf(&b, "COPY --from=%s %s%s %s\n", i.Image, chownFlag(i.Chown), i.Src, i.Dst)
		case domain.Workdir:
			fmt.Fprintf(&b, "WORKDIR %s\n", i.Dir)
		case domain.Env:
			fmt.Fprintf(&b, "ENV %s=%q\n", i.Key, i.Value)
		case domain.Run:
			renderRun(&b, i, opts)
		case domain.Cmd:
			fmt.Fprintf(&b, "CMD %s\n", i.Command)
		}
	}

	return b.String()
}

func chownFlag(chown string) string {
	if chown == "" {
		return ""
	}
	return "--chown=" + chown + " "
}

// renderRun emits a RUN instruction with ssh/secret mount flags. Secret
// directories arrive as tar archives (BuildKit cannot mount a secret
// directory), so each command is wrapped to unpack them before and
// remove them after.
func renderRun(b *strings.Builder, run domain.Run, opts ports.BuildOptions) {
	var flags []string
	if opts.PassSSH {
		flags = append(flags, "--mount=type=ssh")
	}

	ids := secretIDs(opts.Secrets)
	for _, id := range ids {
		target := opts.Secrets[id].Target
		flags = append(flags, fmt.Sprintf("--mount=type=secret,id=%s,target=%s.tar.gz,required", id, target))
	}

	prefix := "RUN "
	if len(flags) > 0 {
		prefix += strings.Join(flags, " ") + " "
	}

	if len(ids) == 0 {
		fmt.Fprintf(b, "%s%s\n", prefix, run.Command)
		return
	}

	var pre, post []string
	for _, id := range ids {
		target := opts.Secrets[id].Target
		pre = append(pre, fmt.Sprintf("mkdir -p %s && tar zxf %s.tar.gz -C %s", target, target, target))
		post = append(post, fmt.Sprintf("rm -rf %s", target))
	}

	fmt.Fprintf(b, "%s%s && %s && %s\n",
		prefix, strings.Join(pre, " && "), run.Command, strings.Join(post, " && "))
}

func secretIDs(secrets map[string]domain.Secret) []string {
	if len(secrets) == 0 {
		return nil
	}
	ids := make([]string, 0, len(secrets))
	for id := range secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
