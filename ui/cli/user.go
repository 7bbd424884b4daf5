// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sustc/sustc/internal/i18n"
	"github.com/sustc/sustc/internal/model"
	"github.com/sustc/sustc/internal/security"
)

// addAuthFlags registers the credential flags used by authenticated commands.
func addAuthFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("mid", 0, "Caller mid")
	cmd.Flags().StringP("password", "p", "", `Caller password ("-" prompts for it)`)
	cmd.Flags().String("qq", "", "Caller QQ (login without password)")
	cmd.Flags().String("wechat", "", "Caller WeChat (login without password)")
}

// authFromFlags builds the caller credentials. It returns nil when no
// credential flag was given.
func authFromFlags(cmd *cobra.Command) (*model.AuthInfo, error) {
	mid, _ := cmd.Flags().GetInt64("mid")
	password, _ := cmd.Flags().GetString("password")
	qq, _ := cmd.Flags().GetString("qq")
	wechat, _ := cmd.Flags().GetString("wechat")
	if mid == 0 && password == "" && qq == "" && wechat == "" {
		return nil, nil
	}
	if password == "-" {
		p, err := readPassword(cmd)
		if err != nil {
			return nil, err
		}
		password = p
	}
	return &model.AuthInfo{Mid: mid, Password: password, QQ: qq, Wechat: wechat}, nil
}

// readPassword prompts without echo on a terminal and reads one line
// otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		secret := security.Secret(b)
		defer secret.Zero()
		return secret.Reveal(), nil
	}
	var line string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseMid(s string) (int64, error) {
	mid, err := strconv.ParseInt(s, 10, 64)
	if err != nil || mid <= 0 {
		return 0, fmt.Errorf("invalid mid %q", s)
	}
	return mid, nil
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Query and manage users",
	}

	info := &cobra.Command{
		Use:   "info <mid>",
		Short: "Print coins, follows, and video lists of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mid, err := parseMid(args[0])
			if err != nil {
				return err
			}
			resp, err := services.User.GetUserInfo(cmd.Context(), mid)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	register := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &model.RegisterUserReq{}
			req.Name, _ = cmd.Flags().GetString("name")
			req.Password, _ = cmd.Flags().GetString("password")
			sex, _ := cmd.Flags().GetString("sex")
			var err error
			if req.Sex, err = model.ParseGender(sex); err != nil {
				return err
			}
			req.Birthday, _ = cmd.Flags().GetString("birthday")
			req.Sign, _ = cmd.Flags().GetString("sign")
			req.QQ, _ = cmd.Flags().GetString("qq")
			req.Wechat, _ = cmd.Flags().GetString("wechat")
			if req.Password == "-" {
				p, err := readPassword(cmd)
				if err != nil {
					return err
				}
				req.Password = p
			}
			mid, err := services.User.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("user.registered", mid))
			return nil
		},
	}
	register.Flags().String("name", "", "User name")
	register.Flags().StringP("password", "p", "", `Password ("-" prompts for it)`)
	register.Flags().String("sex", string(model.GenderUnknown), "MALE, FEMALE or UNKNOWN")
	register.Flags().String("birthday", "", "Birthday as M月D日")
	register.Flags().String("sign", "", "Personal signature")
	register.Flags().String("qq", "", "QQ id")
	register.Flags().String("wechat", "", "WeChat id")

	follow := &cobra.Command{
		Use:   "follow <mid>",
		Short: "Follow a user, or unfollow when already following",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			followee, err := parseMid(args[0])
			if err != nil {
				return err
			}
			auth, err := authFromFlags(cmd)
			if err != nil {
				return err
			}
			on, err := services.User.Follow(cmd.Context(), auth, followee)
			if err != nil {
				return err
			}
			caller, err := services.User.Authenticate(cmd.Context(), auth)
			if err != nil {
				return err
			}
			if on {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("user.following", caller, followee))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("user.unfollowed", caller, followee))
			}
			return nil
		},
	}
	addAuthFlags(follow)

	cmd.AddCommand(info, register, follow)
	return cmd
}

func printVideos(cmd *cobra.Command, ids []string) {
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), i18n.T("video.none"))
		return
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page-size", 10, "Results per page")
	cmd.Flags().Int("page", 1, "Page number, starting at 1")
}

func pageFromFlags(cmd *cobra.Command) (size, num int) {
	size, _ = cmd.Flags().GetInt("page-size")
	num, _ = cmd.Flags().GetInt("page")
	return size, num
}

func newVideoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Search and recommend videos",
	}

	search := &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Search the videos visible to the caller",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := authFromFlags(cmd)
			if err != nil {
				return err
			}
			size, num := pageFromFlags(cmd)
			ids, err := services.Video.SearchVideo(cmd.Context(), auth, strings.Join(args, " "), size, num)
			if err != nil {
				return err
			}
			printVideos(cmd, ids)
			return nil
		},
	}
	addAuthFlags(search)
	addPageFlags(search)

	recommend := &cobra.Command{
		Use:   "recommend [bv]",
		Short: "Recommend videos",
		Long: `With a BV, lists the videos most often watched together with it.
With credentials, recommends what the caller's friends watch.
Otherwise lists the best scored videos.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var ids []string
			var err error
			if len(args) == 1 {
				ids, err = services.Recommender.RecommendNextVideo(ctx, args[0])
			} else {
				auth, aerr := authFromFlags(cmd)
				if aerr != nil {
					return aerr
				}
				size, num := pageFromFlags(cmd)
				if auth != nil {
					ids, err = services.Recommender.RecommendVideosForUser(ctx, auth, size, num)
				} else {
					ids, err = services.Recommender.GeneralRecommendations(ctx, size, num)
				}
			}
			if err != nil {
				return err
			}
			printVideos(cmd, ids)
			return nil
		},
	}
	addAuthFlags(recommend)
	addPageFlags(recommend)

	cmd.AddCommand(search, recommend)
	return cmd
}
